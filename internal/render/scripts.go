package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Script 需要重新激活的内嵌脚本
// Script is an embedded script element that must be re-activated.
// Index is its ordinal among all script elements of the content.
type Script struct {
	Index int               `json:"index"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Body  string            `json:"body"`
}

// Src returns the src attribute, if any.
func (s Script) Src() string {
	return s.Attrs["src"]
}

// FindScripts 按文档顺序找出脚本；既无内容又无 src 的跳过
// FindScripts lists script elements in document order, skipping those with
// an empty body and no src
func FindScripts(content string) []Script {
	if !strings.Contains(strings.ToLower(content), "<script") {
		return nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return nil
	}

	var out []Script
	index := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			var body strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					body.WriteString(c.Data)
				}
			}
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			if strings.TrimSpace(body.String()) != "" || attrs["src"] != "" {
				out = append(out, Script{Index: index, Attrs: attrs, Body: body.String()})
			}
			index++
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}
