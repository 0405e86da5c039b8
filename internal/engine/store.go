package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunState is the lifecycle marker inside a results file.
type RunState string

const (
	RunStateRunning  RunState = "running"
	RunStateComplete RunState = "complete"
)

// DeliveryOutcome records what happened when the report bundle was handed
// to the delivery gateway.
type DeliveryOutcome struct {
	Delivered bool      `json:"delivered"`
	Mode      string    `json:"mode"` // "approved" or "auto_resume"
	Detail    string    `json:"detail,omitempty"`
	MessageID uuid.UUID `json:"message_id"`
	At        time.Time `json:"at"`
}

// ResultFile is the on-disk shape of one day's run. It always exists once
// a run starts: first as a placeholder, then with the final map, then
// again once the delivery outcome is known.
type ResultFile struct {
	GeneratedAt time.Time             `json:"generated_at"`
	State       RunState              `json:"state"`
	Results     map[string]TaskResult `json:"results"`
	Delivery    *DeliveryOutcome      `json:"delivery,omitempty"`
}

// ResultStore owns the date-keyed results files. Single writer: the run
// in flight owns its file.
type ResultStore struct {
	dir string
	now func() time.Time
}

// NewResultStore builds a store rooted at dir, creating it if needed.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results dir %s: %w", dir, err)
	}
	return &ResultStore{dir: dir, now: time.Now}, nil
}

// Path returns the results file path for a date key (DD-MM-YYYY).
func (s *ResultStore) Path(dateKey string) string {
	return filepath.Join(s.dir, dateKey+"_connector_results.json")
}

// WritePlaceholder writes a provisional file before any task completes,
// so a reader never observes a missing output file.
func (s *ResultStore) WritePlaceholder(dateKey string, specs []TaskSpec) error {
	results := make(map[string]TaskResult, len(specs))
	for _, spec := range specs {
		results[spec.Name] = TaskResult{TaskName: spec.Name, Status: StatusRunning}
	}
	return s.write(dateKey, &ResultFile{
		GeneratedAt: s.now(),
		State:       RunStateRunning,
		Results:     results,
	})
}

// WriteFinal overwrites the placeholder with the completed result map.
func (s *ResultStore) WriteFinal(dateKey string, results map[string]TaskResult) error {
	return s.write(dateKey, &ResultFile{
		GeneratedAt: s.now(),
		State:       RunStateComplete,
		Results:     results,
	})
}

// RecordDelivery rewrites the file with the delivery outcome attached.
func (s *ResultStore) RecordDelivery(dateKey string, outcome DeliveryOutcome) error {
	file, err := s.Load(dateKey)
	if err != nil {
		return err
	}
	file.Delivery = &outcome
	return s.write(dateKey, file)
}

// Load reads the results file for a date key.
func (s *ResultStore) Load(dateKey string) (*ResultFile, error) {
	raw, err := os.ReadFile(s.Path(dateKey))
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var file ResultFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	return &file, nil
}

// write performs an atomic temp-and-rename replace so readers never see a
// torn file.
func (s *ResultStore) write(dateKey string, file *ResultFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results file: %w", err)
	}

	target := s.Path(dateKey)
	tmp, err := os.CreateTemp(s.dir, ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp results file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp results file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp results file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replacing results file: %w", err)
	}
	return nil
}
