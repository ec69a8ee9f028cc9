package textview

import (
	"strings"
	"testing"
)

const calculator = `<div class="calc">
  <h1>Calculator</h1>
  <input id="display" value="12">
  <div class="keys">
    <button data-interaction-id="key_1">1</button>
    <button data-interaction-id="key_plus"><span>+</span></button>
  </div>
  <ul><li>History: 3*4</li><li>Memory</li></ul>
  <script>document.title = "x"</script>
  <button data-interaction-id="app_close_button">Close</button>
</div>`

func TestBuild_NumbersTargetsInDocumentOrder(t *testing.T) {
	v, err := Build(calculator)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(v.Targets) != 3 {
		t.Fatalf("targets=%d, want 3", len(v.Targets))
	}
	for i, want := range []string{"**[1]** 1", "**[2]** +", "**[3]** Close"} {
		if !strings.Contains(v.Markdown, want) {
			t.Fatalf("markdown missing %q (target %d):\n%s", want, i+1, v.Markdown)
		}
	}
	if tgt, ok := v.Target(2); !ok || tgt.ID != "key_plus" {
		t.Fatalf("Target(2)=%+v", tgt)
	}
	if _, ok := v.Target(4); ok {
		t.Fatal("Target(4) should not exist")
	}
}

func TestBuild_StructureAndFields(t *testing.T) {
	v, err := Build(calculator)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(v.Markdown, "# Calculator") {
		t.Fatalf("markdown=%q", v.Markdown)
	}
	if !strings.Contains(v.Markdown, "- History: 3\\*4\n- Memory") && !strings.Contains(v.Markdown, "- History: 3*4\n- Memory") {
		t.Fatalf("list not rendered:\n%s", v.Markdown)
	}
	if !strings.Contains(v.Markdown, "`display=12`") {
		t.Fatalf("field not rendered:\n%s", v.Markdown)
	}
	if strings.Contains(v.Markdown, "document.title") {
		t.Fatal("script text leaked into the view")
	}
	if f, ok := v.Field("display"); !ok || f.Value != "12" {
		t.Fatalf("Field(display)=%+v", f)
	}
}

func TestBuild_CapturesThroughDoc(t *testing.T) {
	v, _ := Build(calculator)
	tgt, _ := v.Target(1)
	ev, ok := v.Doc.CaptureAt(tgt.Path, nil, "calculator_app")
	if !ok || ev.ID != "key_1" || ev.AppContext != "calculator_app" {
		t.Fatalf("event=%+v ok=%v", ev, ok)
	}
}

func TestTruncateAndTargetLines(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("Truncate=%q", got)
	}
	if got := Truncate("文件管理器", 6); got != "文件…" {
		t.Fatalf("Truncate wide=%q, want %q", got, "文件…")
	}
	v, _ := Build(calculator)
	lines := TargetLines(v.Targets, 40)
	if len(lines) != 3 || lines[2] != "[3] Close" {
		t.Fatalf("lines=%q", lines)
	}
}

func TestRenderMarkdown(t *testing.T) {
	if RenderMarkdown("   ", 40) != "" {
		t.Fatal("blank input should render empty")
	}
	out := RenderMarkdown("# Title\n\nbody text", 40)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "body text") {
		t.Fatalf("rendered=%q", out)
	}
}
