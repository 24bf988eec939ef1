package alias

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNameSet_ProperName(t *testing.T) {
	names := NameSet{
		"Lady Geist": {"geist", "ghost"},
		"Ivy":        {"ivy", "tengu"},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"geist", "Lady Geist"},
		{"GHOST", "Lady Geist"},
		{"tengu", "Ivy"},
		{"ivy", "Ivy"},
		{"newhero", "Newhero"}, // unknown: capitalized fallback
	}
	for _, tt := range tests {
		if got := names.ProperName(tt.in); got != tt.want {
			t.Errorf("ProperName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameSet_Contains(t *testing.T) {
	names := NameSet{"Ivy": {"ivy", "tengu"}}
	if !names.Contains("Tengu") {
		t.Error("Contains must be case-insensitive")
	}
	if names.Contains("vex") {
		t.Error("unknown names must not be contained")
	}
}

func TestLoadNameSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero_aliases.json")
	content := `{"Ivy": ["ivy", "tengu"], "Vindicta": ["vindicta"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := LoadNameSet(path)
	if err != nil {
		t.Fatalf("LoadNameSet: %v", err)
	}
	valid := names.ValidNames()
	for _, want := range []string{"ivy", "tengu", "vindicta"} {
		if !valid[want] {
			t.Errorf("ValidNames missing %q", want)
		}
	}

	if _, err := LoadNameSet(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ivy", "Ivy"},
		{"IVY", "Ivy"},
		{"", ""},
		{"x", "X"},
	}
	for _, tt := range tests {
		if got := Capitalize(tt.in); got != tt.want {
			t.Errorf("Capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
