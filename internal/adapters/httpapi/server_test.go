package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude-collective/collective/internal/adapters/file"
	"github.com/claude-collective/collective/internal/adapters/httpapi"
	"github.com/claude-collective/collective/internal/installer"
	"github.com/claude-collective/collective/pkg/agent"
	"github.com/claude-collective/collective/pkg/experiment"
	"github.com/claude-collective/collective/pkg/tasks"
)

func newTestServer(t *testing.T) (*httptest.Server, *experiment.Framework) {
	t.Helper()

	dir := t.TempDir()
	_, err := installer.Install(dir, installer.Options{Mode: installer.ModeFull})
	require.NoError(t, err)

	registry := agent.NewRegistry()
	require.NoError(t, registry.Add(&agent.Definition{Name: "routing-agent", Description: "hub"}))

	experiments := experiment.New(file.New(t.TempDir()))
	queue := tasks.New()
	_, err = queue.Add(context.Background(), tasks.Task{Title: "first task"})
	require.NoError(t, err)

	srv := httpapi.New(dir, registry, experiments, queue,
		httpapi.WithGatherer(prometheus.NewRegistry()))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, experiments
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestServer_Status(t *testing.T) {
	ts, _ := newTestServer(t)

	var status installer.InstallStatus
	code := getJSON(t, ts.URL+"/status", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, status.Complete())
}

func TestServer_Agents(t *testing.T) {
	ts, _ := newTestServer(t)

	var agents []agent.Definition
	code := getJSON(t, ts.URL+"/agents", &agents)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, agents, 1)
	assert.Equal(t, "routing-agent", agents[0].Name)

	var def agent.Definition
	code = getJSON(t, ts.URL+"/agents/routing-agent", &def)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hub", def.Description)

	code = getJSON(t, ts.URL+"/agents/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_Experiments(t *testing.T) {
	ts, experiments := newTestServer(t)
	ctx := context.Background()

	exp, err := experiments.Create(ctx, "prompt-tweak", "", []experiment.Variant{
		{ID: "control", Allocation: 0.5, Control: true},
		{ID: "treatment", Allocation: 0.5},
	})
	require.NoError(t, err)
	require.NoError(t, experiments.Record(ctx, exp.ID, "s1", "task_success", 1, true))

	var list []experiment.Experiment
	code := getJSON(t, ts.URL+"/experiments", &list)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, list, 1)

	var report experiment.Report
	code = getJSON(t, ts.URL+"/experiments/"+exp.ID+"/report", &report)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, report.Variants, 2)

	code = getJSON(t, ts.URL+"/experiments/missing/report", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_RecordResult(t *testing.T) {
	ts, experiments := newTestServer(t)
	ctx := context.Background()

	exp, err := experiments.Create(ctx, "prompt-tweak", "", []experiment.Variant{
		{ID: "control", Allocation: 0.5, Control: true},
		{ID: "treatment", Allocation: 0.5},
	})
	require.NoError(t, err)

	body := strings.NewReader(`{"subject":"s1","metric":"task_success","value":1,"converted":true}`)
	resp, err := http.Post(ts.URL+"/experiments/"+exp.ID+"/results", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	results, err := experiments.Results(ctx, exp.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Converted)

	resp, err = http.Post(ts.URL+"/experiments/missing/results", "application/json",
		strings.NewReader(`{"subject":"s1","metric":"m"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/experiments/"+exp.ID+"/results", "application/json",
		strings.NewReader(`{"metric":"m"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Queue(t *testing.T) {
	ts, _ := newTestServer(t)

	var list []tasks.Task
	code := getJSON(t, ts.URL+"/queue", &list)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, list, 1)
	assert.Equal(t, "first task", list[0].Title)
}

func TestServer_OpenAPIAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	code := getJSON(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_CORS(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/agents", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
