package categories

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize_Alias(t *testing.T) {
	r := NewRegistry()

	if got := r.Normalize("gadget"); got != "Electronics" {
		t.Errorf("Expected 'Electronics', got '%s'", got)
	}
	if got := r.Normalize("  ELECTRONICS "); got != "Electronics" {
		t.Errorf("Expected 'Electronics', got '%s'", got)
	}
}

func TestNormalize_Unknown(t *testing.T) {
	r := NewRegistry()

	if got := r.Normalize(" Musical Instruments "); got != "Musical Instruments" {
		t.Errorf("Unknown category should pass through trimmed, got '%s'", got)
	}
	if got := r.Normalize(""); got != "" {
		t.Errorf("Empty category should stay empty, got '%s'", got)
	}
}

func TestEqual(t *testing.T) {
	r := NewRegistry()

	if !r.Equal("gadget", "Electronics") {
		t.Error("Expected alias and canonical name to be equal")
	}
	if r.Equal("Electronics", "Documents") {
		t.Error("Different categories should not be equal")
	}
	if r.Equal("", "Electronics") {
		t.Error("Empty category should never be equal")
	}
}

func TestEqual_CaseFolding(t *testing.T) {
	r := NewRegistry()

	if !r.Equal("GADGET", "electronics") {
		t.Error("Expected comparison to ignore case")
	}
	// Unknown categories compare under full Unicode case folding.
	if !r.Equal("Straße", "STRASSE") {
		t.Error("Expected folded comparison for non-ASCII categories")
	}
}

func TestLoad_ExtendsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yml")
	content := `categories:
  - name: Sports Equipment
    aliases:
      - ball
      - racket
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing categories file: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := r.Normalize("racket"); got != "Sports Equipment" {
		t.Errorf("Expected 'Sports Equipment', got '%s'", got)
	}

	// Built-ins survive the file load.
	if got := r.Normalize("gadget"); got != "Electronics" {
		t.Errorf("Expected 'Electronics', got '%s'", got)
	}
}

func TestLoad_MissingName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yml")
	if err := os.WriteFile(path, []byte("categories:\n  - aliases: [x]\n"), 0o644); err != nil {
		t.Fatalf("writing categories file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for entry without a name")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Count() == 0 {
		t.Error("Expected built-in aliases with empty path")
	}
}
