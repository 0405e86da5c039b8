// Package credentials routes a task to its owning identity and secret
// material, gated by a per-platform activation date.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

// Resolution failure kinds. The engine treats all three identically, but
// callers such as the readiness check report them separately.
var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrNotActive      = errors.New("task not active yet")
	ErrMissingSecrets = errors.New("missing login secrets")
)

// Login is the resolved identity for a task.
type Login struct {
	Owner    string
	Email    string
	Password string
}

// Platform binds a task identifier to an owning team member and the date
// the stream goes live.
type Platform struct {
	ID         string
	Title      string
	Owner      string
	ActivateOn time.Time
}

// Router resolves task identifiers against a fixed platform registry.
// The clock and environment lookup are injectable for tests.
type Router struct {
	platforms map[string]Platform
	now       func() time.Time
	getenv    func(string) string
}

// Option customizes a Router.
type Option func(*Router)

// WithClock overrides the activation-date clock.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithEnv overrides environment lookup.
func WithEnv(getenv func(string) string) Option {
	return func(r *Router) { r.getenv = getenv }
}

// NewRouter builds a Router over the given platforms.
func NewRouter(platforms []Platform, opts ...Option) *Router {
	r := &Router{
		platforms: make(map[string]Platform, len(platforms)),
		now:       time.Now,
		getenv:    os.Getenv,
	}
	for _, p := range platforms {
		r.platforms[p.ID] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the login for a task identifier, or one of the typed
// failures: unknown identifier, activation date in the future, or secret
// material absent from the environment.
func (r *Router) Resolve(taskID string) (*Login, error) {
	p, ok := r.platforms[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	if r.now().Before(p.ActivateOn) {
		return nil, fmt.Errorf("%w: %s activates on %s",
			ErrNotActive, p.Title, p.ActivateOn.Format("2006-01-02"))
	}
	email, password, err := r.ownerSecrets(p.Owner)
	if err != nil {
		return nil, err
	}
	return &Login{Owner: p.Owner, Email: email, Password: password}, nil
}

// ownerSecrets fetches email/password for a logical owner. Elina accepts
// either the bare EMAIL/PASSWORD pair or the prefixed variants.
func (r *Router) ownerSecrets(owner string) (string, string, error) {
	var email, password string
	switch owner {
	case "elina":
		email = firstOf(r.getenv, "EMAIL", "ELINA_EMAIL")
		password = firstOf(r.getenv, "PASSWORD", "ELINA_PASS")
	case "kael":
		email = r.getenv("KAEL_EMAIL")
		password = r.getenv("KAEL_PASS")
	case "riva":
		email = r.getenv("RIVA_EMAIL")
		password = r.getenv("RIVA_PASS")
	default:
		return "", "", fmt.Errorf("%w: unknown owner %q", ErrMissingSecrets, owner)
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%w for %s", ErrMissingSecrets, owner)
	}
	return email, password, nil
}

// Active returns the platforms whose activation date has passed, ordered by
// activation date then id.
func (r *Router) Active() []Platform {
	now := r.now()
	var out []Platform
	for _, p := range r.platforms {
		if !now.Before(p.ActivateOn) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ActivateOn.Equal(out[j].ActivateOn) {
			return out[i].ActivateOn.Before(out[j].ActivateOn)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NextActivation returns the next platform that will become active, or nil.
func (r *Router) NextActivation() *Platform {
	now := r.now()
	var next *Platform
	for _, p := range r.platforms {
		if p.ActivateOn.After(now) {
			p := p
			if next == nil || p.ActivateOn.Before(next.ActivateOn) {
				next = &p
			}
		}
	}
	return next
}

func firstOf(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}
