package main

import (
	"time"

	"github.com/veeresh/va-bot/internal/approval"
	"github.com/veeresh/va-bot/internal/pipeline"
)

// waitForResolution polls the state machine until the record leaves
// PENDING, with a grace margin past the window for the continue action.
func waitForResolution(p *pipeline.Pipeline, reportID string, window time.Duration) {
	deadline := time.Now().Add(window + 30*time.Second)
	for time.Now().Before(deadline) {
		state, ok := p.Machine().Get(reportID)
		if !ok || state != approval.StatePending {
			// Give the continue action a moment to finish delivery.
			time.Sleep(2 * time.Second)
			return
		}
		time.Sleep(1 * time.Second)
	}
}
