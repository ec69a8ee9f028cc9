package interaction

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestCapture_WalksUpToInteractiveAncestor(t *testing.T) {
	doc := mustParse(t, `<div class="card"><button data-interaction-id="open_doc" data-interaction-type="file_open"><span>  Open   Report </span></button></div>`)

	// div > button > span
	ev, ok := doc.CaptureAt([]int{0, 0, 0}, nil, "documents")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.ID != "open_doc" || ev.Type != "file_open" {
		t.Fatalf("event=%+v", ev)
	}
	if ev.ElementKind != "button" {
		t.Fatalf("ElementKind=%q, want button", ev.ElementKind)
	}
	if ev.ElementLabel != "Open Report" {
		t.Fatalf("ElementLabel=%q, want %q", ev.ElementLabel, "Open Report")
	}
	if ev.AppContext != "documents" {
		t.Fatalf("AppContext=%q", ev.AppContext)
	}
}

func TestCapture_NoInteractiveAncestor(t *testing.T) {
	doc := mustParse(t, `<div><p>plain text</p></div>`)
	if _, ok := doc.CaptureAt([]int{0, 0}, nil, ""); ok {
		t.Fatal("expected no event")
	}
	if _, ok := doc.CaptureAt([]int{5}, nil, ""); ok {
		t.Fatal("out-of-range path should not capture")
	}
}

func TestCapture_DefaultTypeAndLiteralValue(t *testing.T) {
	doc := mustParse(t, `<a href="/x" data-interaction-id="nav" data-interaction-value="page-2">Next</a>`)
	ev, ok := doc.CaptureAt([]int{0}, nil, "")
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Type != TypeGenericClick {
		t.Fatalf("Type=%q, want %q", ev.Type, TypeGenericClick)
	}
	if ev.Value != "page-2" {
		t.Fatalf("Value=%q, want page-2", ev.Value)
	}
}

func TestCapture_ValueFromLiveInput(t *testing.T) {
	content := `<input id="cmd" value="ls"><button data-interaction-id="run" data-value-from="cmd">Run</button>`
	doc := mustParse(t, content)

	ev, _ := doc.CaptureAt([]int{1}, map[string]string{"cmd": "architect"}, "terminal_app")
	if ev.Value != "architect" {
		t.Fatalf("live Value=%q, want architect", ev.Value)
	}

	ev, _ = doc.CaptureAt([]int{1}, nil, "terminal_app")
	if ev.Value != "ls" {
		t.Fatalf("dom Value=%q, want ls", ev.Value)
	}
}

func TestCapture_ValueFromTextareaAndMissingSource(t *testing.T) {
	doc := mustParse(t, `<textarea id="note">hello world</textarea><button data-interaction-id="save" data-interaction-value="fallback" data-value-from="note">Save</button><button data-interaction-id="save2" data-interaction-value="kept" data-value-from="nope">Save</button>`)
	ev, _ := doc.CaptureAt([]int{1}, nil, "")
	if ev.Value != "hello world" {
		t.Fatalf("Value=%q, want textarea text", ev.Value)
	}
	ev, _ = doc.CaptureAt([]int{2}, nil, "")
	if ev.Value != "kept" {
		t.Fatalf("Value=%q, missing source should keep literal value", ev.Value)
	}
}

func TestCapture_LabelFallsBackToValueAndTruncates(t *testing.T) {
	doc := mustParse(t, `<input type="submit" value="  Submit form  " data-interaction-id="go">`)
	ev, _ := doc.CaptureAt([]int{0}, nil, "")
	if ev.ElementLabel != "Submit form" {
		t.Fatalf("ElementLabel=%q", ev.ElementLabel)
	}

	long := strings.Repeat("x", 120)
	doc = mustParse(t, `<div data-interaction-id="long">`+long+`</div>`)
	ev, _ = doc.CaptureAt([]int{0}, nil, "")
	if n := len([]rune(ev.ElementLabel)); n != MaxLabelLength {
		t.Fatalf("label length=%d, want %d", n, MaxLabelLength)
	}
}

func TestCapture_LabelSkipsScripts(t *testing.T) {
	doc := mustParse(t, `<div data-interaction-id="w">Clock<script>tick()</script></div>`)
	ev, _ := doc.CaptureAt([]int{0}, nil, "")
	if ev.ElementLabel != "Clock" {
		t.Fatalf("ElementLabel=%q, want Clock", ev.ElementLabel)
	}
}

func TestTargets_DocumentOrderAndPaths(t *testing.T) {
	doc := mustParse(t, `<h1>Calc</h1><div><button data-interaction-id="k1">1</button><button data-interaction-id="k2">2</button></div><button data-interaction-id="app_close_button">Close</button>`)
	targets := doc.Targets()
	if len(targets) != 3 {
		t.Fatalf("targets=%d, want 3", len(targets))
	}
	want := []string{"k1", "k2", "app_close_button"}
	for i, id := range want {
		if targets[i].ID != id {
			t.Fatalf("targets[%d].ID=%q, want %q", i, targets[i].ID, id)
		}
		ev, ok := doc.CaptureAt(targets[i].Path, nil, "")
		if !ok || ev.ID != id {
			t.Fatalf("path %v did not resolve to %q", targets[i].Path, id)
		}
	}
}

func TestEventIsControl(t *testing.T) {
	for _, id := range []string{IDCloseApp, IDChangeAPIKey, IDTogglePiP} {
		if !(Event{ID: id}).IsControl() {
			t.Fatalf("%s should be a control id", id)
		}
	}
	if (Event{ID: "open_doc"}).IsControl() {
		t.Fatal("open_doc should not be a control id")
	}
}

func TestFields_ListsIdentifiedFormElements(t *testing.T) {
	doc := mustParse(t, `<input id="q" value="cats"><input value="anon"><select id="size"><option value="s">S</option><option value="l" selected>L</option></select><textarea id="body">hi</textarea>`)
	fields := doc.Fields()
	if len(fields) != 3 {
		t.Fatalf("fields=%d, want 3", len(fields))
	}
	want := []Field{{ID: "q", Kind: "input", Value: "cats"}, {ID: "size", Kind: "select", Value: "l"}, {ID: "body", Kind: "textarea", Value: "hi"}}
	for i, w := range want {
		f := fields[i]
		if f.ID != w.ID || f.Kind != w.Kind || f.Value != w.Value {
			t.Fatalf("fields[%d]=%+v, want %+v", i, f, w)
		}
		if doc.ElementAt(f.Path) == nil {
			t.Fatalf("fields[%d] path %v does not resolve", i, f.Path)
		}
	}
}
