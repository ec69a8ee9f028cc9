package history

import (
	"fmt"
	"testing"

	"genos/internal/apps"
	"genos/internal/interaction"
)

func ev(id string) interaction.Event {
	return interaction.Event{ID: id, Type: interaction.TypeGenericClick}
}

func build(n int) History {
	h := History{}
	for i := 0; i < n; i++ {
		h = append(History{ev(fmt.Sprintf("e%d", i))}, h...)
	}
	return h
}

func TestAppend_Bound(t *testing.T) {
	cases := []struct {
		prev int
		max  int
		want int
	}{
		{0, 10, 1},
		{3, 10, 4},
		{10, 10, 10},
		{12, 10, 10},
		{5, 1, 1},
		{5, 0, 1},
		{5, -3, 1},
		{4, 3, 3},
	}
	for _, tc := range cases {
		got := Append(build(tc.prev), ev("new"), tc.max)
		if len(got) != tc.want {
			t.Fatalf("prev=%d max=%d: len=%d, want %d", tc.prev, tc.max, len(got), tc.want)
		}
		if got[0].ID != "new" {
			t.Fatalf("prev=%d max=%d: newest=%q", tc.prev, tc.max, got[0].ID)
		}
	}
}

func TestAppend_KeepsNewestPastInOrder(t *testing.T) {
	h := build(4) // e3 e2 e1 e0
	got := Append(h, ev("new"), 3)
	want := []string{"new", "e3", "e2"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("got[%d]=%q, want %q", i, got[i].ID, id)
		}
	}
}

func TestAppend_DoesNotMutateInput(t *testing.T) {
	h := build(3)
	before := h.Clone()
	_ = Append(h, ev("new"), 10)
	for i := range h {
		if h[i] != before[i] {
			t.Fatalf("input mutated at %d: %+v", i, h[i])
		}
	}
}

func TestResetAndBootstrap(t *testing.T) {
	if got := Reset(nil); len(got) != 0 {
		t.Fatalf("Reset(nil) len=%d", len(got))
	}
	app, _ := apps.Lookup("notepad_app")
	boot := Bootstrap(app)
	h := Reset(&boot)
	cur, ok := h.Current()
	if !ok || cur.Type != interaction.TypeAppOpen || cur.ElementLabel != "Notepad" || cur.AppContext != "notepad_app" {
		t.Fatalf("bootstrap event unexpected: %+v", cur)
	}
	if cur.ElementKind != "icon" {
		t.Fatalf("ElementKind=%q, want icon", cur.ElementKind)
	}
	if h.Past() != nil {
		t.Fatalf("Past() should be empty")
	}
}

func TestValidLength(t *testing.T) {
	for _, n := range []int{0, 5, 10} {
		if !ValidLength(n) {
			t.Fatalf("ValidLength(%d)=false", n)
		}
	}
	for _, n := range []int{-1, 11} {
		if ValidLength(n) {
			t.Fatalf("ValidLength(%d)=true", n)
		}
	}
}
