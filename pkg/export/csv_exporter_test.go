package export

import (
	"strings"
	"testing"
)

func TestCSVRender(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"ID", "Name", "Status"},
		Rows: []map[string]string{
			{"ID": "1", "Name": "Projector", "Status": "Working"},
			{"ID": "2", "Name": "Whiteboard"},
		},
	})
	if err != nil {
		t.Fatalf("render csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "ID,Name,Status" {
		t.Fatalf("unexpected header row: %s", lines[0])
	}
	if lines[2] != "2,Whiteboard," {
		t.Fatalf("expected missing cells to render empty, got: %s", lines[2])
	}
}

func TestCSVRenderQuotesCommas(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Name"},
		Rows:    []map[string]string{{"Name": "Chairs, stackable"}},
	})
	if err != nil {
		t.Fatalf("render csv: %v", err)
	}
	if !strings.Contains(string(payload), `"Chairs, stackable"`) {
		t.Fatalf("expected quoted cell, got: %s", payload)
	}
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	if _, err := exporter.Render(Dataset{}); err == nil {
		t.Fatal("expected error for empty headers")
	}
}
