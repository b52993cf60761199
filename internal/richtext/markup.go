package richtext

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses journal markup into a document. Characters without an
// explicit font size take base.Size.
func ParseHTML(markup string, base Format) (Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Document{}, fmt.Errorf("richtext: parse: %w", err)
	}
	p := &parser{}
	body := findBody(root)
	if body == nil {
		return NewDocument(), nil
	}
	p.walk(body, applyStyle(base, attr(body, "style")))
	p.flush()
	return NewDocument(p.blocks...), nil
}

type parser struct {
	blocks []Block
	cur    []Run
	open   bool
}

func (p *parser) flush() {
	if !p.open {
		return
	}
	p.blocks = append(p.blocks, Block{Runs: p.cur})
	p.cur = nil
	p.open = false
}

func (p *parser) lineBreak() {
	p.blocks = append(p.blocks, Block{Runs: p.cur})
	p.cur = nil
	p.open = true
}

func (p *parser) walk(n *html.Node, f Format) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(c.Data)
			if !p.open && strings.TrimSpace(text) == "" {
				continue
			}
			p.cur = append(p.cur, Run{Text: text, Format: f})
			p.open = true
		case html.ElementNode:
			p.element(c, f)
		}
	}
}

func (p *parser) element(n *html.Node, f Format) {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		return
	case atom.Br:
		if isBlock(n.Parent) && lastElement(n) {
			p.open = true
			return
		}
		p.lineBreak()
		return
	case atom.Img:
		if src := attr(n, "src"); src != "" {
			p.cur = append(p.cur, Run{Image: src, Format: f})
			p.open = true
		}
		return
	case atom.B, atom.Strong:
		f.Bold = true
	case atom.I, atom.Em:
		f.Italic = true
	case atom.U, atom.Ins:
		f.Underline = true
	case atom.S, atom.Strike, atom.Del:
		f.StrikeOut = true
	}
	f = applyStyle(f, attr(n, "style"))
	if isBlock(n) {
		p.flush()
		p.open = true
		p.walk(n, f)
		p.flush()
		return
	}
	p.walk(n, f)
}

func isBlock(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

// lastElement reports whether nothing but whitespace follows n in its parent.
func lastElement(n *html.Node) bool {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) == "" {
			continue
		}
		return false
	}
	return true
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
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

// applyStyle folds the inline CSS declarations the journal understands into f.
func applyStyle(f Format, style string) Format {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		switch k {
		case "font-weight":
			f.Bold = parseWeight(v, f.Bold)
		case "font-style":
			f.Italic = v == "italic" || v == "oblique"
		case "text-decoration", "text-decoration-line":
			if v == "none" {
				f.Underline, f.StrikeOut = false, false
				continue
			}
			f.Underline = f.Underline || strings.Contains(v, "underline")
			f.StrikeOut = f.StrikeOut || strings.Contains(v, "line-through")
		case "font-size":
			if size, ok := parseSize(v); ok {
				f.Size = size
			}
		}
	}
	return f
}

func parseWeight(v string, cur bool) bool {
	switch v {
	case "bold", "bolder":
		return true
	case "normal", "lighter":
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n >= 600
	}
	return cur
}

func parseSize(v string) (int, bool) {
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
		scale = 0.75
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	size := int(math.Round(n * scale))
	if size <= 0 {
		return 0, false
	}
	return size, true
}

// HTML renders d as journal markup. Output is stable for equal documents.
func (d Document) HTML() string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, b := range d.Blocks {
		sb.WriteString("<p>")
		if len(b.Runs) == 0 {
			sb.WriteString("<br />")
		}
		for _, r := range b.Runs {
			style := styleOf(r.Format)
			if r.IsImage() {
				sb.WriteString(`<img src="`)
				sb.WriteString(html.EscapeString(r.Image))
				sb.WriteString(`"`)
				if style != "" {
					sb.WriteString(` style="` + style + `"`)
				}
				sb.WriteString(" />")
				continue
			}
			if style == "" {
				sb.WriteString(html.EscapeString(r.Text))
				continue
			}
			sb.WriteString(`<span style="` + style + `">`)
			sb.WriteString(html.EscapeString(r.Text))
			sb.WriteString("</span>")
		}
		sb.WriteString("</p>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func styleOf(f Format) string {
	var parts []string
	if f.Size > 0 {
		parts = append(parts, "font-size:"+strconv.Itoa(f.Size)+"pt")
	}
	if f.Bold {
		parts = append(parts, "font-weight:700")
	}
	if f.Italic {
		parts = append(parts, "font-style:italic")
	}
	switch {
	case f.Underline && f.StrikeOut:
		parts = append(parts, "text-decoration:underline line-through")
	case f.Underline:
		parts = append(parts, "text-decoration:underline")
	case f.StrikeOut:
		parts = append(parts, "text-decoration:line-through")
	}
	return strings.Join(parts, "; ")
}
