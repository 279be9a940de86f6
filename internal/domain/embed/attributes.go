package embed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

const dataPrefix = "data-"

// Element is an embed element reduced to what a sandbox needs.
type Element struct {
	// TagName is upper case, as reported by the DOM.
	TagName    string
	Type       string
	Attributes map[string]any
}

// ExtractAttributes parses the first element of markup. typeOverride, when
// set, replaces the element's type attribute. A missing type or a malformed
// json attribute is a configuration error.
func ExtractAttributes(markup, typeOverride string) (*Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: parse embed markup: %v", types.ErrConfiguration, err)
	}

	sel := doc.Find("body").Children().First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: no embed element in markup", types.ErrConfiguration)
	}
	node := sel.Get(0)

	typ := typeOverride
	if typ == "" {
		typ = sel.AttrOr("type", "")
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: attribute type is required for <%s>", types.ErrConfiguration, node.Data)
	}

	attrs := map[string]any{"type": typ}
	for _, name := range []string{"width", "height"} {
		if v, ok := sel.Attr(name); ok {
			attrs[name] = dimension(v)
		}
	}
	for _, a := range node.Attr {
		if key, ok := datasetKey(a.Key); ok {
			attrs[key] = a.Val
		}
	}

	if raw, ok := sel.Attr("json"); ok && raw != "" {
		var extra map[string]any
		if err := sonic.UnmarshalString(raw, &extra); err != nil || extra == nil {
			return nil, fmt.Errorf("%w: error parsing json attribute of <%s>", types.ErrConfiguration, node.Data)
		}
		for k, v := range extra {
			attrs[k] = v
		}
	}

	return &Element{
		TagName:    strings.ToUpper(node.Data),
		Type:       typ,
		Attributes: attrs,
	}, nil
}

// datasetKey maps data-foo-bar to fooBar. Attributes outside the data-
// namespace report false.
func datasetKey(attr string) (string, bool) {
	name, ok := strings.CutPrefix(attr, dataPrefix)
	if !ok || name == "" {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' && i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z' {
			b.WriteByte(name[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

func dimension(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}
