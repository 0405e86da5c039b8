// Package engine runs the registered connector set with isolation,
// timeout, and bounded retry, and owns the per-run result file.
package engine

import (
	"time"

	"github.com/veeresh/va-bot/internal/connector"
)

// Status is the outcome class of one task execution.
type Status string

const (
	StatusRunning Status = "running" // placeholder before completion
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// TaskSpec identifies one unit of work. Immutable; defined at process
// start from the adapter registry.
type TaskSpec struct {
	Name        string        `json:"name"`
	Platform    string        `json:"platform"` // credential-router identifier
	Timeout     time.Duration `json:"timeout"`
	MaxAttempts int           `json:"max_attempts"`
}

// TaskResult is the outcome of one task execution. Created once per run
// per task and never mutated after creation.
type TaskResult struct {
	TaskName     string             `json:"task_name"`
	Status       Status             `json:"status"`
	Payload      *connector.Payload `json:"payload,omitempty"`
	ErrorDetail  string             `json:"error_detail,omitempty"`
	AttemptCount int                `json:"attempt_count"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// Specs derives the task registry from an adapter registry plus the
// engine-wide timeout/attempt budget.
func Specs(reg *connector.Registry, timeout time.Duration, maxAttempts int) []TaskSpec {
	specs := make([]TaskSpec, 0, reg.Len())
	for _, a := range reg.Adapters() {
		specs = append(specs, TaskSpec{
			Name:        a.Name(),
			Platform:    a.Platform(),
			Timeout:     timeout,
			MaxAttempts: maxAttempts,
		})
	}
	return specs
}
