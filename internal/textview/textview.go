package textview

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"genos/internal/interaction"
)

// View 窗口内容的文本视图：Markdown 中的 [n] 对应 Targets[n-1]
// View is a text rendition of window content; a [n] marker in Markdown
// refers to Targets[n-1]
type View struct {
	Markdown string
	Targets  []interaction.Target
	Fields   []interaction.Field
	Doc      *interaction.Document
}

// Target returns the 1-based target n.
func (v View) Target(n int) (interaction.Target, bool) {
	if n < 1 || n > len(v.Targets) {
		return interaction.Target{}, false
	}
	return v.Targets[n-1], true
}

// Field finds a form field by id.
func (v View) Field(id string) (interaction.Field, bool) {
	for _, f := range v.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return interaction.Field{}, false
}

// Build 解析内容并生成文本视图；脚本与样式被忽略
// Build parses content and renders its text view; scripts and styles are skipped
func Build(content string) (View, error) {
	doc, err := interaction.Parse(content)
	if err != nil {
		return View{}, err
	}
	v := View{Doc: doc, Targets: doc.Targets(), Fields: doc.Fields()}

	targetIndex := make(map[*html.Node]int, len(v.Targets))
	for i, t := range v.Targets {
		if n := doc.ElementAt(t.Path); n != nil {
			targetIndex[n] = i
		}
	}
	fieldIndex := make(map[*html.Node]int, len(v.Fields))
	for i, f := range v.Fields {
		if n := doc.ElementAt(f.Path); n != nil {
			fieldIndex[n] = i
		}
	}

	w := &mdWriter{}
	var walk func(n *html.Node, skipText bool)
	walk = func(n *html.Node, skipText bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if !skipText {
					w.inline(strings.Join(strings.Fields(c.Data), " "))
				}
			case html.ElementNode:
				if isIgnored(c.DataAtom) {
					continue
				}
				if i, ok := targetIndex[c]; ok {
					t := v.Targets[i]
					label := t.Label
					if label == "" {
						label = t.ID
					}
					w.inline(fmt.Sprintf("**[%d]** %s", i+1, escape(label)))
					walk(c, true)
					continue
				}
				if i, ok := fieldIndex[c]; ok {
					f := v.Fields[i]
					w.inline(fmt.Sprintf("`%s=%s`", f.ID, f.Value))
					continue
				}
				prefix, block := blockPrefix(c.DataAtom)
				if !block {
					walk(c, skipText)
					continue
				}
				w.flush()
				saved := w.prefix
				if prefix != "" {
					w.prefix = prefix
				}
				walk(c, skipText)
				w.flush()
				w.prefix = saved
			}
		}
	}
	walk(doc.Root(), false)
	w.flush()
	v.Markdown = w.String()
	return v, nil
}

// Truncate 按显示宽度截断（CJK 与 emoji 占两列）
// Truncate cuts s to width display cells
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// TargetLines 每个目标一行 "[n] label"，标签按宽度截断
// TargetLines lists one "[n] label" line per target, labels cut to width
func TargetLines(targets []interaction.Target, width int) []string {
	lines := make([]string, 0, len(targets))
	for i, t := range targets {
		label := t.Label
		if label == "" {
			label = t.ID
		}
		lines = append(lines, Truncate(fmt.Sprintf("[%d] %s", i+1, label), width))
	}
	return lines
}

type mdWriter struct {
	out    strings.Builder
	line   strings.Builder
	prefix string
}

func (w *mdWriter) inline(s string) {
	if s == "" {
		return
	}
	if w.line.Len() > 0 {
		w.line.WriteByte(' ')
	}
	w.line.WriteString(s)
}

func (w *mdWriter) flush() {
	if w.line.Len() == 0 {
		return
	}
	w.out.WriteString(w.prefix)
	w.out.WriteString(w.line.String())
	if w.prefix == "- " {
		w.out.WriteString("\n")
	} else {
		w.out.WriteString("\n\n")
	}
	w.line.Reset()
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

func (w *mdWriter) String() string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(w.out.String(), "\n\n"))
}

func blockPrefix(a atom.Atom) (string, bool) {
	switch a {
	case atom.H1:
		return "# ", true
	case atom.H2:
		return "## ", true
	case atom.H3:
		return "### ", true
	case atom.H4, atom.H5, atom.H6:
		return "#### ", true
	case atom.Li:
		return "- ", true
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Main, atom.Nav, atom.Aside, atom.Ul, atom.Ol, atom.Table, atom.Tr,
		atom.Form, atom.Br, atom.Hr, atom.Pre, atom.Blockquote:
		return "", true
	}
	return "", false
}

func isIgnored(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Iframe, atom.Object, atom.Embed, atom.Svg:
		return true
	}
	return false
}

var mdSpecial = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`)

func escape(s string) string {
	return mdSpecial.Replace(s)
}
