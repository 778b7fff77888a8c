package experiment

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/pkg/ports"
	"github.com/claude-collective/collective/pkg/session"
)

const (
	experimentsCollection = "experiments"
	assignmentsCollection = "assignments"
	resultsCollection     = "results"

	// allocationTolerance absorbs float error when checking that variant
	// allocations sum to 1.
	allocationTolerance = 1e-9
)

// Recorder counts recorded results, typically prometheus-backed.
type Recorder interface {
	RecordObservation(experimentID, variantID string)
}

// Framework manages experiments on top of a Store.
type Framework struct {
	store    ports.Store
	locks    *session.Manager
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures the Framework.
type Option func(*Framework)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Framework) {
		f.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Framework) {
		f.now = now
	}
}

// WithRecorder registers a metrics recorder counting recorded results.
func WithRecorder(rec Recorder) Option {
	return func(f *Framework) {
		f.recorder = rec
	}
}

// WithLockManager replaces the lock manager serializing assignment writes,
// e.g. to add a distributed locker in front of a shared store.
func WithLockManager(locks *session.Manager) Option {
	return func(f *Framework) {
		f.locks = locks
	}
}

// New creates a Framework backed by store.
func New(store ports.Store, opts ...Option) *Framework {
	f := &Framework{
		store:  store,
		locks:  session.NewManager(),
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create validates and persists a new experiment. Variant IDs must be unique
// and allocations must be positive and sum to 1.
func (f *Framework) Create(ctx context.Context, name, hypothesis string, variants []Variant) (*Experiment, error) {
	if name == "" {
		return nil, errors.New("experiment name is required")
	}
	if len(variants) < 2 {
		return nil, errors.New("an experiment needs at least two variants")
	}

	seen := make(map[string]bool, len(variants))
	total := 0.0
	controls := 0
	for _, v := range variants {
		if v.ID == "" {
			return nil, errors.New("variant ID is required")
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate variant ID %q", v.ID)
		}
		seen[v.ID] = true
		if v.Allocation <= 0 {
			return nil, fmt.Errorf("variant %q must have a positive allocation", v.ID)
		}
		total += v.Allocation
		if v.Control {
			controls++
		}
	}
	if math.Abs(total-1) > allocationTolerance {
		return nil, fmt.Errorf("variant allocations sum to %g, want 1", total)
	}
	if controls > 1 {
		return nil, errors.New("at most one variant may be marked control")
	}

	exp := &Experiment{
		ID:         f.newID(),
		Name:       name,
		Hypothesis: hypothesis,
		Variants:   variants,
		Status:     StatusActive,
		CreatedAt:  f.now().UTC(),
	}

	if err := f.store.Save(ctx, experimentsCollection, exp.ID, exp); err != nil {
		return nil, fmt.Errorf("failed to save experiment: %w", err)
	}

	f.logger.Info("experiment created", "id", exp.ID, "name", name, "variants", len(variants))
	return exp, nil
}

// Get loads an experiment by ID.
func (f *Framework) Get(ctx context.Context, id string) (*Experiment, error) {
	var exp Experiment
	if err := f.store.Load(ctx, experimentsCollection, id, &exp); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("failed to load experiment: %w", err)
	}
	return &exp, nil
}

// List returns all experiments, newest first.
func (f *Framework) List(ctx context.Context) ([]*Experiment, error) {
	ids, err := f.store.List(ctx, experimentsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	exps := make([]*Experiment, 0, len(ids))
	for _, id := range ids {
		exp, err := f.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrExperimentNotFound) {
				continue // deleted between List and Get
			}
			return nil, err
		}
		exps = append(exps, exp)
	}

	sort.Slice(exps, func(i, j int) bool {
		return exps[i].CreatedAt.After(exps[j].CreatedAt)
	})
	return exps, nil
}

// Assign returns the variant for subject, creating a sticky assignment on
// first contact. Assignment is deterministic: the same subject always hashes
// into the same allocation bucket, so a lost assignment record reassigns
// identically.
func (f *Framework) Assign(ctx context.Context, experimentID, subject string) (*Assignment, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	exp, err := f.Get(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp.Status != StatusActive {
		return nil, ErrConcluded
	}

	// Concurrent hooks may race on first contact; the check-then-save runs
	// under a per-subject lock so exactly one assignment record wins.
	key := assignmentKey(experimentID, subject)
	var assignment *Assignment
	err = f.locks.WithLock(ctx, "assignment:"+key, func(ctx context.Context) error {
		var existing Assignment
		loadErr := f.store.Load(ctx, assignmentsCollection, key, &existing)
		if loadErr == nil {
			assignment = &existing
			return nil
		}
		if !errors.Is(loadErr, ports.ErrNotFound) {
			return fmt.Errorf("failed to load assignment: %w", loadErr)
		}

		assignment = &Assignment{
			ExperimentID: experimentID,
			Subject:      subject,
			VariantID:    bucket(exp, subject),
			At:           f.now().UTC(),
		}
		if saveErr := f.store.Save(ctx, assignmentsCollection, key, assignment); saveErr != nil {
			return fmt.Errorf("failed to save assignment: %w", saveErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

// Record stores one metric result for subject. The subject must already be
// (or becomes) assigned; the result carries the variant so analysis never
// needs a join.
func (f *Framework) Record(ctx context.Context, experimentID, subject, metric string, value float64, converted bool) error {
	if metric == "" {
		return errors.New("metric name is required")
	}

	assignment, err := f.Assign(ctx, experimentID, subject)
	if err != nil {
		return err
	}

	res := &Result{
		ExperimentID: experimentID,
		Subject:      subject,
		VariantID:    assignment.VariantID,
		Metric:       metric,
		Value:        value,
		Converted:    converted,
		At:           f.now().UTC(),
	}

	id := fmt.Sprintf("%s:%s", experimentID, f.newID())
	if err := f.store.Save(ctx, resultsCollection, id, res); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if f.recorder != nil {
		f.recorder.RecordObservation(experimentID, assignment.VariantID)
	}

	return nil
}

// Conclude freezes the experiment and returns its final report.
func (f *Framework) Conclude(ctx context.Context, experimentID string) (*Report, error) {
	exp, err := f.Get(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp.Status == StatusConcluded {
		return nil, ErrConcluded
	}

	exp.Status = StatusConcluded
	exp.ConcludedAt = f.now().UTC()
	if err := f.store.Save(ctx, experimentsCollection, exp.ID, exp); err != nil {
		return nil, fmt.Errorf("failed to save experiment: %w", err)
	}

	f.logger.Info("experiment concluded", "id", exp.ID, "name", exp.Name)
	return f.Report(ctx, experimentID)
}

// Results returns all results recorded for the experiment.
func (f *Framework) Results(ctx context.Context, experimentID string) ([]Result, error) {
	ids, err := f.store.List(ctx, resultsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	prefix := experimentID + ":"
	var out []Result
	for _, id := range ids {
		if len(id) < len(prefix) || id[:len(prefix)] != prefix {
			continue
		}
		var res Result
		if err := f.store.Load(ctx, resultsCollection, id, &res); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load result: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}

func assignmentKey(experimentID, subject string) string {
	return experimentID + ":" + subject
}

// bucket hashes the subject into the cumulative allocation ranges.
func bucket(exp *Experiment, subject string) string {
	h := fnv.New64a()
	h.Write([]byte(exp.ID))
	h.Write([]byte(":"))
	h.Write([]byte(subject))
	point := float64(h.Sum64()) / float64(math.MaxUint64)

	cumulative := 0.0
	for _, v := range exp.Variants {
		cumulative += v.Allocation
		if point < cumulative {
			return v.ID
		}
	}
	// Float drift at the top of the range falls into the last variant.
	return exp.Variants[len(exp.Variants)-1].ID
}
