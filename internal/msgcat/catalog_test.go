package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMessages(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("api.missing_param", map[string]string{"Param": "'pgn'"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "missing required parameter 'pgn'" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := c.Text("api.invalid_pgn", nil); got != "invalid PGN" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestMissingKeyAndData(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("api.nope", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("api.unknown_model", map[string]string{}); err == nil {
		t.Fatalf("expected error for missing template data")
	}
	if got := c.Text("api.nope", nil); got != "api.nope" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("api:\n  invalid_pgn: \"bad game record\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("api.invalid_pgn", nil); got != "bad game record" {
		t.Fatalf("override not applied: %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("api:\n  invalid_pgn: \"again\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate override key error")
	}
}
