package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/credentials"
)

// fakeAdapter scripts one connector's behavior per attempt.
type fakeAdapter struct {
	name     string
	platform string
	calls    atomic.Int32

	payload  *connector.Payload
	err      error
	failN    int32         // first N attempts fail before payload succeeds
	block    time.Duration // sleep before returning
	panicMsg string
}

func (f *fakeAdapter) Name() string                         { return f.name }
func (f *fakeAdapter) Platform() string                     { return f.platform }
func (f *fakeAdapter) Capabilities() connector.Capabilities { return connector.Capabilities{} }

func (f *fakeAdapter) Fetch(ctx context.Context, _ *credentials.Login, _ connector.Window) (*connector.Payload, error) {
	n := f.calls.Add(1)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block > 0 {
		select {
		case <-time.After(f.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if n <= f.failN {
		return nil, fmt.Errorf("transient failure %d", n)
	}
	return f.payload, nil
}

func testRouter() *credentials.Router {
	platforms := []credentials.Platform{
		{ID: "p1", Title: "One", Owner: "kael", ActivateOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p2", Title: "Two", Owner: "kael", ActivateOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "p3", Title: "Three", Owner: "kael", ActivateOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	env := map[string]string{"KAEL_EMAIL": "kael@example.com", "KAEL_PASS": "pw"}
	return credentials.NewRouter(platforms, credentials.WithEnv(func(k string) string { return env[k] }))
}

func buildEngine(t *testing.T, adapters []*fakeAdapter, timeout time.Duration, maxAttempts int) *Engine {
	t.Helper()
	reg := connector.NewRegistry()
	for _, a := range adapters {
		reg.MustRegister(a)
	}
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	return New(reg, testRouter(), store, Specs(reg, timeout, maxAttempts))
}

func TestRunSequentialAndParallelAgree(t *testing.T) {
	mk := func() []*fakeAdapter {
		return []*fakeAdapter{
			{name: "A", platform: "p1", payload: &connector.Payload{Total: 100}},
			{name: "B", platform: "p2", err: fmt.Errorf("upstream down")},
			{name: "C", platform: "p3", payload: &connector.Payload{Total: 2.5}},
		}
	}

	seq := buildEngine(t, mk(), time.Second, 2)
	seqResults, err := seq.Run(context.Background(), "25-08-2025", Options{Parallel: false, Backoff: time.Millisecond})
	require.NoError(t, err)

	par := buildEngine(t, mk(), time.Second, 2)
	parResults, err := par.Run(context.Background(), "25-08-2025", Options{Parallel: true, MaxWorkers: 2, Backoff: time.Millisecond})
	require.NoError(t, err)

	require.Len(t, seqResults, 3)
	require.Len(t, parResults, 3)
	for name, sr := range seqResults {
		pr, ok := parResults[name]
		require.True(t, ok, "parallel run missing task %s", name)
		assert.Equal(t, sr.Status, pr.Status, "task %s status diverged", name)
		assert.Equal(t, sr.AttemptCount, pr.AttemptCount, "task %s attempts diverged", name)
	}

	require.Equal(t, StatusOK, seqResults["A"].Status)
	assert.Equal(t, 100.0, seqResults["A"].Payload.Total)
	assert.Equal(t, StatusError, seqResults["B"].Status)
	assert.Equal(t, 2, seqResults["B"].AttemptCount)
}

func TestRunTaskTimeout(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "slow", platform: "p1", block: 5 * time.Second, payload: &connector.Payload{Total: 1}},
	}
	e := buildEngine(t, adapters, 50*time.Millisecond, 1)

	start := time.Now()
	results, err := e.Run(context.Background(), "25-08-2025", Options{Backoff: time.Millisecond})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout did not bound the task")

	res := results["slow"]
	assert.Equal(t, StatusTimeout, res.Status)
	assert.Contains(t, res.ErrorDetail, "no result within")
}

func TestRunTaskRetrySucceedsSecondAttempt(t *testing.T) {
	a := &fakeAdapter{name: "flaky", platform: "p1", failN: 1, payload: &connector.Payload{Total: 9}}
	e := buildEngine(t, []*fakeAdapter{a}, time.Second, 3)

	results, err := e.Run(context.Background(), "25-08-2025", Options{Backoff: time.Millisecond})
	require.NoError(t, err)

	res := results["flaky"]
	require.Equal(t, StatusOK, res.Status, "detail: %s", res.ErrorDetail)
	assert.Equal(t, 2, res.AttemptCount)
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestRunTaskPanicIsolated(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "boom", platform: "p1", panicMsg: "nil map write"},
		{name: "fine", platform: "p2", payload: &connector.Payload{Total: 50}},
	}
	e := buildEngine(t, adapters, time.Second, 1)

	results, err := e.Run(context.Background(), "25-08-2025", Options{Parallel: true, MaxWorkers: 2})
	require.NoError(t, err)

	boom := results["boom"]
	assert.Equal(t, StatusError, boom.Status)
	assert.Contains(t, boom.ErrorDetail, "panic")
	assert.Equal(t, StatusOK, results["fine"].Status, "panicking sibling corrupted a healthy task")
}

func TestRunTaskCredentialFailure(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "orphan", platform: "unregistered_stream", payload: &connector.Payload{}},
	}
	e := buildEngine(t, adapters, time.Second, 3)

	results, err := e.Run(context.Background(), "25-08-2025", Options{})
	require.NoError(t, err)

	res := results["orphan"]
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorDetail, "unknown task")
	// Credential failures never reach the adapter, so no retry burn.
	assert.Equal(t, int32(0), adapters[0].calls.Load())
}

func TestRunRejectsInvalidPayload(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "bad", platform: "p1", payload: &connector.Payload{Total: -10}},
	}
	e := buildEngine(t, adapters, time.Second, 1)

	results, err := e.Run(context.Background(), "25-08-2025", Options{})
	require.NoError(t, err)

	res := results["bad"]
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorDetail, "schema")
}

func TestRunWritesResultFile(t *testing.T) {
	reg := connector.NewRegistry()
	reg.MustRegister(&fakeAdapter{name: "A", platform: "p1", payload: &connector.Payload{Total: 7}})
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	e := New(reg, testRouter(), store, Specs(reg, time.Second, 1))

	_, err = e.Run(context.Background(), "25-08-2025", Options{})
	require.NoError(t, err)

	file, err := store.Load("25-08-2025")
	require.NoError(t, err)
	assert.Equal(t, RunStateComplete, file.State)
	assert.Equal(t, StatusOK, file.Results["A"].Status)
}

func TestSpecsFollowRegistryOrder(t *testing.T) {
	reg := connector.NewRegistry()
	reg.MustRegister(&fakeAdapter{name: "Z", platform: "p1"})
	reg.MustRegister(&fakeAdapter{name: "A", platform: "p2"})

	specs := Specs(reg, 90*time.Second, 2)
	require.Len(t, specs, 2)
	assert.Equal(t, "Z", specs[0].Name)
	assert.Equal(t, "A", specs[1].Name)
	assert.Equal(t, 90*time.Second, specs[0].Timeout)
	assert.Equal(t, 2, specs[0].MaxAttempts)
}
