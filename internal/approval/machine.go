// Package approval tracks the per-report approval state and drives the
// deadline-based auto-resume.
package approval

import (
	"errors"
	"sync"
	"time"
)

// State of an approval record.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateResumed  State = "resumed"
)

// ErrNotFound is returned when an approval signal references an unknown
// report id.
var ErrNotFound = errors.New("approval record not found")

// Outcome classifies the result of an approval signal.
type Outcome string

const (
	OutcomeApproved        Outcome = "approved"
	OutcomeAlreadyResolved Outcome = "already_resolved"
)

// Record tracks one report's approval lifecycle.
type Record struct {
	ReportID  string
	DateKey   string
	State     State
	CreatedAt time.Time
	Deadline  time.Time
	Notified  bool

	timer *time.Timer
}

// ContinueFunc is the single-fire continuation invoked on approval or
// deadline expiry. auto is true for the auto-resume path.
type ContinueFunc func(reportID, dateKey string, auto bool)

// Store holds approval records for one process lifetime. It starts empty
// and is dropped at process exit; it is passed by reference to whoever
// needs it rather than living in package state.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewStore builds an empty record store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Machine is the approval state machine: PENDING -> APPROVED (explicit
// signal) or PENDING -> RESUMED (deadline expiry). Terminal states never
// transition again, and the continue action fires exactly once per record.
type Machine struct {
	store    *Store
	window   time.Duration
	onResume ContinueFunc
	now      func() time.Time
}

// NewMachine builds a Machine over a store. window is the approval
// deadline; onResume is the continue action.
func NewMachine(store *Store, window time.Duration, onResume ContinueFunc) *Machine {
	return &Machine{
		store:    store,
		window:   window,
		onResume: onResume,
		now:      time.Now,
	}
}

// Create registers a new pending record for a report and arms its
// deadline timer. Stale unresolved records from previous days are
// resolved first so they can never block a new day's processing.
func (m *Machine) Create(reportID, dateKey string) *Record {
	now := m.now()

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.expireStaleLocked(dateKey)

	rec := &Record{
		ReportID:  reportID,
		DateKey:   dateKey,
		State:     StatePending,
		CreatedAt: now,
		Deadline:  now.Add(m.window),
		Notified:  true,
	}
	rec.timer = time.AfterFunc(m.window, func() { m.expire(reportID) })
	m.store.records[reportID] = rec
	return rec
}

// Approve handles an explicit approval signal. Unknown ids return
// ErrNotFound; already-resolved records return OutcomeAlreadyResolved
// idempotently. The first resolution cancels the deadline timer and
// fires the continue action exactly once. The state transition happens
// under the lock before Approve returns; the continue action itself runs
// on its own goroutine so a link click is acknowledged without waiting
// out the delivery retries.
func (m *Machine) Approve(reportID string) (Outcome, error) {
	m.store.mu.Lock()
	rec, ok := m.store.records[reportID]
	if !ok {
		m.store.mu.Unlock()
		return "", ErrNotFound
	}
	if rec.State != StatePending {
		m.store.mu.Unlock()
		return OutcomeAlreadyResolved, nil
	}
	rec.State = StateApproved
	if rec.timer != nil {
		rec.timer.Stop()
	}
	dateKey := rec.DateKey
	m.store.mu.Unlock()

	go m.onResume(reportID, dateKey, false)
	return OutcomeApproved, nil
}

// expire is the timer path. If the record was concurrently approved this
// is a no-op; otherwise it resolves to RESUMED and fires the continue
// action with the auto-resume annotation.
func (m *Machine) expire(reportID string) {
	m.store.mu.Lock()
	rec, ok := m.store.records[reportID]
	if !ok || rec.State != StatePending {
		m.store.mu.Unlock()
		return
	}
	rec.State = StateResumed
	dateKey := rec.DateKey
	m.store.mu.Unlock()

	m.onResume(reportID, dateKey, true)
}

// expireStaleLocked resolves pending records from other days without
// firing their continue action, and garbage-collects records older than
// the new day. Caller holds the store mutex.
func (m *Machine) expireStaleLocked(dateKey string) {
	for id, rec := range m.store.records {
		if rec.DateKey == dateKey {
			continue
		}
		if rec.State == StatePending {
			rec.State = StateResumed
			if rec.timer != nil {
				rec.timer.Stop()
			}
		}
		delete(m.store.records, id)
	}
}

// Get returns a snapshot of a record's state.
func (m *Machine) Get(reportID string) (State, bool) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	rec, ok := m.store.records[reportID]
	if !ok {
		return "", false
	}
	return rec.State, true
}
