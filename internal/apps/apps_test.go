package apps

import "testing"

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	if len(r) != 13 {
		t.Fatalf("registry size=%d, want 13", len(r))
	}
	seen := map[string]bool{}
	pip := 0
	for _, a := range r {
		if seen[a.ID] {
			t.Fatalf("duplicate id %q", a.ID)
		}
		seen[a.ID] = true
		if a.PiP {
			pip++
		}
	}
	if pip != 1 {
		t.Fatalf("PiP-capable apps=%d, want 1", pip)
	}
	if a, ok := Lookup("voice_assistant"); !ok || !a.PiP || a.Name != "Live Chat" {
		t.Fatalf("voice_assistant unexpected: %+v", a)
	}
}

func TestRegistryName(t *testing.T) {
	r := Default()
	if got := r.Name("calculator_app"); got != "Calculator" {
		t.Fatalf("Name=%q, want Calculator", got)
	}
	if got := r.Name("custom_app"); got != "custom_app" {
		t.Fatalf("Name=%q, want raw id", got)
	}
}
