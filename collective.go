package collective

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/claude-collective/collective/internal/adapters/file"
	redisAdapter "github.com/claude-collective/collective/internal/adapters/redis"
	"github.com/claude-collective/collective/internal/config"
	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/pkg/agent"
	"github.com/claude-collective/collective/pkg/experiment"
	"github.com/claude-collective/collective/pkg/ports"
	"github.com/claude-collective/collective/pkg/tasks"
)

// Version is the release version, overridable at build time via
// -ldflags "-X github.com/claude-collective/collective.Version=...".
var Version = "1.0.0"

// StateDirName is the collective's state directory inside a target project.
const StateDirName = ".claude-collective"

// AgentsDirName is where agent personas live, relative to the target project.
var AgentsDirName = filepath.Join(".claude", "agents")

// Collective is the high-level entry point for the library: a loaded agent
// registry plus the experiment framework and task queue, all rooted at one
// target project directory.
type Collective struct {
	Dir    string
	Config *config.Config

	registry    *agent.Registry
	experiments *experiment.Framework
	queue       *tasks.Queue
	store       ports.Store
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Collective.
type Option func(*Collective)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collective) {
		c.logger = logger
	}
}

// WithStore injects a custom document store, bypassing the backend selection
// from config.
func WithStore(store ports.Store) Option {
	return func(c *Collective) {
		c.store = store
	}
}

// New opens the collective installed at dir (the target project root).
// It loads config.toml, the agent registry, and wires the experiment
// framework and task queue onto the configured store backend.
func New(dir string, opts ...Option) (*Collective, error) {
	c := &Collective{Dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	cfg, err := config.Load(filepath.Join(dir, StateDirName))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	registry, err := agent.LoadDir(filepath.Join(dir, AgentsDirName))
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	c.registry = registry

	// The experiments and the queue may persist through different backends;
	// an injected store overrides both.
	queueStore := c.store
	if c.store == nil {
		c.store, err = openStore(dir, cfg, cfg.Experiment.Backend)
		if err != nil {
			return nil, err
		}
		queueStore = c.store
		if cfg.Queue.Backend != cfg.Experiment.Backend {
			queueStore, err = openStore(dir, cfg, cfg.Queue.Backend)
			if err != nil {
				return nil, err
			}
		}
	}

	c.experiments = experiment.New(c.store, experiment.WithLogger(c.logger))
	c.queue = tasks.New(tasks.WithStore(queueStore))

	return c, nil
}

func openStore(dir string, cfg *config.Config, backend string) (ports.Store, error) {
	switch backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisAdapter.NewFromClient(client, redisAdapter.WithPrefix(cfg.Redis.Prefix)), nil
	case "file", "":
		return file.New(filepath.Join(dir, StateDirName)), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Agents returns the loaded agent registry.
func (c *Collective) Agents() *agent.Registry {
	return c.registry
}

// Experiments returns the experiment framework.
func (c *Collective) Experiments() *experiment.Framework {
	return c.experiments
}

// Queue returns the task queue. Call its Restore to pick up persisted state.
func (c *Collective) Queue() *tasks.Queue {
	return c.queue
}

// Store returns the underlying document store.
func (c *Collective) Store() ports.Store {
	return c.store
}

// Hub returns the configured hub agent name.
func (c *Collective) Hub() string {
	return c.Config.Routing.Hub
}
