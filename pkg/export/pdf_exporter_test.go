package export

import (
	"bytes"
	"testing"
)

func TestPDFRender(t *testing.T) {
	exporter := NewPDFExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"ID", "Name"},
		Rows:    []map[string]string{{"ID": "1", "Name": "Projector"}},
	}, "Equipment Inventory")
	if err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("expected pdf magic bytes, got: %q", payload[:8])
	}
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()
	if _, err := exporter.Render(Dataset{}, ""); err == nil {
		t.Fatal("expected error for empty headers")
	}
}
