package frame

import (
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is the parsed host document. Only read access is offered.
type Document struct {
	root *html.Node
}

// EmptyDocument returns a document with no declarations
func EmptyDocument() *Document {
	return &Document{}
}

// ParseDocument parses HTML markup
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// ParseDocumentString parses HTML markup held in a string
func ParseDocumentString(markup string) (*Document, error) {
	return ParseDocument(strings.NewReader(markup))
}

// MetaContent returns the content attribute of the first <meta name=...>
// declaration. ok is false when no such declaration exists.
func (d *Document) MetaContent(name string) (content string, ok bool) {
	n := d.first("//meta[@name=" + xpathLiteral(name) + "]")
	if n == nil {
		return "", false
	}
	return htmlquery.SelectAttr(n, "content"), true
}

// CanonicalURL returns the href of <link rel="canonical">, or "".
func (d *Document) CanonicalURL() string {
	n := d.first("//link[@rel='canonical']")
	if n == nil {
		return ""
	}
	return htmlquery.SelectAttr(n, "href")
}

func (d *Document) first(expr string) *html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	n, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return nil
	}
	return n
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
