package interaction

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document 已解析的窗口内容子树
// Document is a parsed window-content subtree
type Document struct {
	root *html.Node
}

// Target 一个可交互元素及其定位路径
// Target is one interactive element and its locating path
type Target struct {
	Path  []int
	ID    string
	Type  string
	Kind  string
	Label string
}

// Parse 以 <div> 为上下文解析内容片段；子节点挂在一个合成根节点下
// Parse parses content as a fragment in a <div> context under a synthetic root
func Parse(content string) (*Document, error) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return &Document{root: root}, nil
}

// Root returns the synthetic container node.
func (d *Document) Root() *html.Node {
	return d.root
}

// ElementAt 按元素子节点下标逐级定位；越界返回 nil
// ElementAt resolves a path of element-child indices; out of range yields nil
func (d *Document) ElementAt(path []int) *html.Node {
	n := d.root
	for _, idx := range path {
		n = nthElementChild(n, idx)
		if n == nil {
			return nil
		}
	}
	return n
}

// Capture 从 origin 向上寻找最近的带 data-interaction-id 的元素（含自身），到根为止
// Capture walks up from origin to the nearest element (or self) carrying
// data-interaction-id, stopping at the root. values holds live form values by element id.
func (d *Document) Capture(origin *html.Node, values map[string]string, appContext string) (Event, bool) {
	el := origin
	for el != nil && el.Type != html.ElementNode {
		el = el.Parent
	}
	for el != nil && el != d.root {
		if el.Type == html.ElementNode && attr(el, AttrID) != "" {
			break
		}
		el = el.Parent
	}
	if el == nil || el == d.root {
		return Event{}, false
	}

	value := attr(el, AttrValue)
	if from := attr(el, AttrValueFrom); from != "" {
		if v, ok := values[from]; ok {
			value = v
		} else if src := d.elementByID(from); src != nil {
			value = elementValue(src, values)
		}
	}

	typ := attr(el, AttrType)
	if typ == "" {
		typ = TypeGenericClick
	}

	label := visibleText(el)
	if label == "" {
		label = elementValue(el, values)
	}

	return Event{
		ID:           attr(el, AttrID),
		Type:         typ,
		Value:        value,
		ElementKind:  strings.ToLower(el.Data),
		ElementLabel: TruncateLabel(label),
		AppContext:   appContext,
	}, true
}

// CaptureAt resolves path and captures in one step.
func (d *Document) CaptureAt(path []int, values map[string]string, appContext string) (Event, bool) {
	origin := d.ElementAt(path)
	if origin == nil {
		return Event{}, false
	}
	return d.Capture(origin, values, appContext)
}

// Targets 按文档顺序列出所有可交互元素
// Targets lists every interactive element in document order
func (d *Document) Targets() []Target {
	var out []Target
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if id := attr(c, AttrID); id != "" {
				typ := attr(c, AttrType)
				if typ == "" {
					typ = TypeGenericClick
				}
				label := visibleText(c)
				if label == "" {
					label = elementValue(c, nil)
				}
				out = append(out, Target{
					Path:  PathOf(d.root, c),
					ID:    id,
					Type:  typ,
					Kind:  strings.ToLower(c.Data),
					Label: TruncateLabel(label),
				})
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// Field 带 id 的表单元素，宿主可为其提供实时值
// Field is a form element with an id whose live value a host may supply
type Field struct {
	Path  []int
	ID    string
	Kind  string
	Value string
}

// Fields 按文档顺序列出带 id 的 input/textarea/select
// Fields lists input, textarea and select elements that carry an id, in document order
func (d *Document) Fields() []Field {
	var out []Field
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Input, atom.Textarea, atom.Select:
				if id := attr(c, "id"); id != "" {
					out = append(out, Field{
						Path:  PathOf(d.root, c),
						ID:    id,
						Kind:  strings.ToLower(c.Data),
						Value: elementValue(c, nil),
					})
				}
			}
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// PathOf 计算 n 相对 root 的元素下标路径
// PathOf computes n's element-index path relative to root
func PathOf(root, n *html.Node) []int {
	var rev []int
	for cur := n; cur != nil && cur != root; cur = cur.Parent {
		idx := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		rev = append(rev, idx)
	}
	path := make([]int, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

func (d *Document) elementByID(id string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if c.Type == html.ElementNode && attr(c, "id") == id {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(d.root)
	return found
}

func nthElementChild(n *html.Node, idx int) *html.Node {
	if idx < 0 {
		return nil
	}
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == idx {
			return c
		}
		i++
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// elementValue 读取表单元素当前值；values 中的实时值优先
// elementValue reads a form element's current value; live values win
func elementValue(n *html.Node, values map[string]string) string {
	if id := attr(n, "id"); id != "" {
		if v, ok := values[id]; ok {
			return v
		}
	}
	switch n.DataAtom {
	case atom.Textarea:
		return textContent(n)
	case atom.Select:
		var first, selected *html.Node
		var walk func(*html.Node)
		walk = func(p *html.Node) {
			for c := p.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.DataAtom == atom.Option {
					if first == nil {
						first = c
					}
					if selected == nil && hasAttr(c, "selected") {
						selected = c
					}
				}
				walk(c)
			}
		}
		walk(n)
		opt := selected
		if opt == nil {
			opt = first
		}
		if opt == nil {
			return ""
		}
		if hasAttr(opt, "value") {
			return attr(opt, "value")
		}
		return strings.TrimSpace(textContent(opt))
	default:
		return attr(n, "value")
	}
}

// visibleText 近似 innerText：跳过 script/style，折叠空白
// visibleText approximates innerText: skips script/style and collapses whitespace
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				switch c.DataAtom {
				case atom.Script, atom.Style, atom.Template, atom.Noscript:
					continue
				}
				walk(c)
				if blockBoundary[c.DataAtom] {
					b.WriteByte(' ')
				}
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

var blockBoundary = map[atom.Atom]bool{
	atom.Br: true, atom.Div: true, atom.P: true, atom.Li: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Section: true, atom.Header: true,
	atom.Footer: true, atom.Ul: true, atom.Ol: true,
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
