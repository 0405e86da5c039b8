// Package connector defines the uniform contract for external-service
// probes and the registry of concrete adapters.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/veeresh/va-bot/internal/credentials"
)

// Window is the reporting interval handed to every adapter. Each run is a
// full idempotent refresh of the window; adapters may ignore it.
type Window struct {
	Start time.Time
	End   time.Time
}

// Detail is one dated earnings line inside a payload.
type Detail struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Payload is the structured result of one connector probe.
type Payload struct {
	Total    float64  `json:"total"`
	Currency string   `json:"currency,omitempty"`
	Details  []Detail `json:"details,omitempty"`
	Note     string   `json:"note,omitempty"`
}

// Capabilities declares the optional operations an adapter supports.
// Declared at registration time instead of probed at runtime.
type Capabilities struct {
	// IssuesAPIKeys marks adapters that can mint platform API keys.
	IssuesAPIKeys bool
}

// Adapter is a named unit of work that contacts one external service and
// returns a structured result or a typed failure.
type Adapter interface {
	// Name is the unique task name used in reports and result files.
	Name() string
	// Platform is the credential-router task identifier.
	Platform() string
	// Capabilities reports the optional operations this adapter supports.
	Capabilities() Capabilities
	// Fetch contacts the service and returns the window's earnings.
	Fetch(ctx context.Context, login *credentials.Login, w Window) (*Payload, error)
}

// Registry is an ordered adapter set. Report entries follow registry
// order, so insertion order is load-bearing.
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Adapter)}
}

// Register adds an adapter. Duplicate names are rejected so a misconfigured
// registry fails at startup, not mid-run.
func (r *Registry) Register(a Adapter) error {
	if _, exists := r.byName[a.Name()]; exists {
		return fmt.Errorf("connector %q already registered", a.Name())
	}
	r.adapters = append(r.adapters, a)
	r.byName[a.Name()] = a
	return nil
}

// MustRegister is Register that panics; used for the static default set.
func (r *Registry) MustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Adapters returns the adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// Lookup returns the adapter with the given name.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Len reports the number of registered adapters.
func (r *Registry) Len() int { return len(r.adapters) }

// DefaultRegistry wires the phase-1 adapter set in report order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewPrintify(nil))
	r.MustRegister(NewMeshy(nil))
	r.MustRegister(NewYouTube())
	r.MustRegister(NewCadCrowd(nil))
	r.MustRegister(NewFiverr())
	return r
}
