package report

import (
	"testing"
	"time"

	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/engine"
)

func TestBuild(t *testing.T) {
	specs := []engine.TaskSpec{
		{Name: "PrintifyPOD", Platform: "printify_pod"},
		{Name: "MeshyAIStore", Platform: "meshy_ai_store"},
		{Name: "CadCrowdAuto", Platform: "cad_crowd"},
	}
	results := map[string]engine.TaskResult{
		"PrintifyPOD": {
			TaskName: "PrintifyPOD",
			Status:   engine.StatusOK,
			Payload:  &connector.Payload{Total: 100.50, Note: "2 shops connected"},
		},
		"CadCrowdAuto": {
			TaskName:    "CadCrowdAuto",
			Status:      engine.StatusError,
			ErrorDetail: "dashboard returned 503",
		},
		"MeshyAIStore": {
			TaskName: "MeshyAIStore",
			Status:   engine.StatusOK,
			Payload:  &connector.Payload{Total: 42, Note: "store sync ok"},
		},
	}

	generatedAt := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	doc := Build(specs, results, "25-08-2025", generatedAt)

	if doc.ReportDate != "25-08-2025" {
		t.Errorf("ReportDate = %q", doc.ReportDate)
	}
	if len(doc.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(doc.Entries))
	}

	// Entry order follows the task list, not the (unordered) result map.
	wantOrder := []string{"PrintifyPOD", "MeshyAIStore", "CadCrowdAuto"}
	for i, name := range wantOrder {
		if doc.Entries[i].Name != name {
			t.Errorf("entry[%d] = %q, want %q", i, doc.Entries[i].Name, name)
		}
	}

	if doc.Total != 142.50 {
		t.Errorf("Total = %v, want 142.50", doc.Total)
	}

	// Successful entries carry the payload note; failed ones carry the
	// error detail and contribute nothing to the total.
	if doc.Entries[0].Note != "2 shops connected" || doc.Entries[0].Amount != 100.50 {
		t.Errorf("printify entry = %+v", doc.Entries[0])
	}
	if doc.Entries[2].Note != "dashboard returned 503" || doc.Entries[2].Amount != 0 {
		t.Errorf("cadcrowd entry = %+v", doc.Entries[2])
	}
	if doc.Entries[2].Status != string(engine.StatusError) {
		t.Errorf("cadcrowd status = %q", doc.Entries[2].Status)
	}
}

func TestBuildMissingResult(t *testing.T) {
	specs := []engine.TaskSpec{{Name: "Ghost", Platform: "ghost"}}
	doc := Build(specs, map[string]engine.TaskResult{}, "25-08-2025", time.Now())

	if len(doc.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(doc.Entries))
	}
	e := doc.Entries[0]
	if e.Status != string(engine.StatusError) || e.Note != "no result recorded" {
		t.Errorf("entry = %+v, want synthesized error row", e)
	}
	if doc.Total != 0 {
		t.Errorf("Total = %v, want 0", doc.Total)
	}
}

func TestBuildErrorDetailWinsOverPayloadNote(t *testing.T) {
	specs := []engine.TaskSpec{{Name: "A", Platform: "p"}}
	results := map[string]engine.TaskResult{
		"A": {
			TaskName:    "A",
			Status:      engine.StatusError,
			ErrorDetail: "validation failed",
			Payload:     &connector.Payload{Total: 5, Note: "partial data"},
		},
	}
	doc := Build(specs, results, "25-08-2025", time.Now())
	if doc.Entries[0].Note != "validation failed" {
		t.Errorf("Note = %q, want the error detail", doc.Entries[0].Note)
	}
	// An attached payload still counts toward the total.
	if doc.Entries[0].Amount != 5 || doc.Total != 5 {
		t.Errorf("Amount/Total = %v/%v", doc.Entries[0].Amount, doc.Total)
	}
}

func TestBuildEmpty(t *testing.T) {
	doc := Build(nil, nil, "25-08-2025", time.Now())
	if len(doc.Entries) != 0 || doc.Total != 0 {
		t.Errorf("doc = %+v, want empty document", doc)
	}
}
