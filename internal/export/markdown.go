package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(session *Session, w io.Writer) error {
	m := session.Meta
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", m.ID)
	_, _ = fmt.Fprintf(w, "**Host:** %s  \n", m.Host)
	_, _ = fmt.Fprintf(w, "**Model:** %s  \n", m.Model)
	_, _ = fmt.Fprintf(w, "**Created:** %s  \n", m.CreatedAt)
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(session.Turns))

	for i, t := range session.Turns {
		ev := t.Event
		_, _ = fmt.Fprintf(w, "## Turn %d: [%s] %s\n\n", t.Seq, ev.Type, ev.Label())
		_, _ = fmt.Fprintf(w, "- target: %s\n- app: %s\n- outcome: %s\n- prompt tokens: %d\n- duration: %dms\n",
			t.Target, t.App, t.Outcome, t.PromptTokens, t.DurationMS)
		if ev.Value != "" {
			_, _ = fmt.Fprintf(w, "- value: %s\n", ev.Value)
		}
		fence := "```"
		for strings.Contains(t.Content, fence) {
			fence += "`"
		}
		_, _ = fmt.Fprintf(w, "\n%shtml\n%s\n%s\n", fence, t.Content, fence)
		if i < len(session.Turns)-1 {
			_, _ = fmt.Fprint(w, "\n---\n\n")
		}
	}
	return nil
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
