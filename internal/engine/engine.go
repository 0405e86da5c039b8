package engine

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/credentials"
)

// Options configures one engine run.
type Options struct {
	// Parallel launches all tasks together, bounded by MaxWorkers.
	// Sequential mode runs tasks in registry order.
	Parallel   bool
	MaxWorkers int
	// Backoff is the fixed pause between retry attempts.
	Backoff time.Duration
	// Window is the reporting interval handed to adapters.
	Window connector.Window
}

// Engine executes the registered adapter set and owns the run's result
// file. One run may be in flight at a time; callers serialize externally.
type Engine struct {
	registry *connector.Registry
	router   *credentials.Router
	store    *ResultStore
	specs    []TaskSpec
	now      func() time.Time
}

// New builds an Engine over a registry, credential router, and store.
func New(registry *connector.Registry, router *credentials.Router, store *ResultStore, specs []TaskSpec) *Engine {
	return &Engine{
		registry: registry,
		router:   router,
		store:    store,
		specs:    specs,
		now:      time.Now,
	}
}

// Specs returns the static task registry for this engine.
func (e *Engine) Specs() []TaskSpec { return e.specs }

// Run executes every task and returns task_name → TaskResult. A fault in
// one task never corrupts another's result or aborts the run. The result
// file is written as a placeholder before any task completes and
// rewritten with the final map afterwards.
func (e *Engine) Run(ctx context.Context, dateKey string, opts Options) (map[string]TaskResult, error) {
	if e.store != nil {
		if err := e.store.WritePlaceholder(dateKey, e.specs); err != nil {
			return nil, fmt.Errorf("writing placeholder results: %w", err)
		}
	}

	results := make([]TaskResult, len(e.specs))

	if opts.Parallel {
		g, gCtx := errgroup.WithContext(ctx)
		if opts.MaxWorkers > 0 {
			g.SetLimit(opts.MaxWorkers)
		}
		for i, spec := range e.specs {
			i, spec := i, spec
			g.Go(func() error {
				results[i] = e.runTask(gCtx, spec, opts)
				return nil
			})
		}
		// Workers never return errors; g.Wait only observes ctx cancellation.
		_ = g.Wait()
	} else {
		for i, spec := range e.specs {
			results[i] = e.runTask(ctx, spec, opts)
		}
	}

	out := make(map[string]TaskResult, len(results))
	for _, r := range results {
		out[r.TaskName] = r
	}

	if e.store != nil {
		if err := e.store.WriteFinal(dateKey, out); err != nil {
			return out, fmt.Errorf("writing final results: %w", err)
		}
	}
	return out, nil
}

// runTask resolves credentials and drives the attempt loop for one task.
// Every failure mode collapses into a TaskResult; nothing propagates.
func (e *Engine) runTask(ctx context.Context, spec TaskSpec, opts Options) TaskResult {
	adapter, ok := e.registry.Lookup(spec.Name)
	if !ok {
		return TaskResult{
			TaskName:    spec.Name,
			Status:      StatusError,
			ErrorDetail: "no adapter registered for task",
			CompletedAt: e.now(),
		}
	}

	login, err := e.router.Resolve(spec.Platform)
	if err != nil {
		// Unknown task, inactive stream, and missing secrets all surface
		// the same way: an error entry, and the run moves on.
		return TaskResult{
			TaskName:    spec.Name,
			Status:      StatusError,
			ErrorDetail: err.Error(),
			CompletedAt: e.now(),
		}
	}

	var last TaskResult
	for attempt := 1; attempt <= spec.MaxAttempts; attempt++ {
		last = e.runAttempt(ctx, adapter, login, spec, opts.Window)
		last.AttemptCount = attempt
		if last.Status == StatusOK {
			return last
		}
		if attempt < spec.MaxAttempts {
			select {
			case <-time.After(opts.Backoff):
			case <-ctx.Done():
				last.ErrorDetail = fmt.Sprintf("%s (run cancelled)", last.ErrorDetail)
				return last
			}
		}
	}
	return last
}

// attemptOutcome carries an adapter return across the watchdog boundary.
type attemptOutcome struct {
	payload *connector.Payload
	err     error
}

// runAttempt executes one bounded attempt. The adapter runs in its own
// goroutine with panic capture; if it misses the deadline the attempt is
// abandoned and recorded as a timeout. The abandoned goroutine holds a
// cancelled context and no shared state, so it cannot corrupt the run.
func (e *Engine) runAttempt(ctx context.Context, adapter connector.Adapter, login *credentials.Login, spec TaskSpec, window connector.Window) TaskResult {
	attemptCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	done := make(chan attemptOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptOutcome{err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
			}
		}()
		payload, err := adapter.Fetch(attemptCtx, login, window)
		done <- attemptOutcome{payload: payload, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return TaskResult{
				TaskName:    spec.Name,
				Status:      StatusError,
				ErrorDetail: out.err.Error(),
				CompletedAt: e.now(),
			}
		}
		if err := connector.ValidatePayload(out.payload); err != nil {
			return TaskResult{
				TaskName:    spec.Name,
				Status:      StatusError,
				ErrorDetail: err.Error(),
				CompletedAt: e.now(),
			}
		}
		return TaskResult{
			TaskName:    spec.Name,
			Status:      StatusOK,
			Payload:     out.payload,
			CompletedAt: e.now(),
		}
	case <-attemptCtx.Done():
		if ctx.Err() == nil {
			log.Printf("task %s exceeded %s, abandoning attempt", spec.Name, spec.Timeout)
		}
		return TaskResult{
			TaskName:    spec.Name,
			Status:      StatusTimeout,
			ErrorDetail: fmt.Sprintf("no result within %s", spec.Timeout),
			CompletedAt: e.now(),
		}
	}
}
