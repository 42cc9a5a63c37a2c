package scriptgate

import (
	"fmt"
	"html"
	"io"

	"libreconsent/internal/category"
)

// InertTag is the placeholder a gated script becomes in the page. With
// type="text/plain" the rendering engine treats the element as opaque text:
// data-src is inert data, the body is inert content, nothing executes.
//
// Activated starts false and is flipped exactly once, by the consent runtime
// only, when the tag's category is granted. Nothing else may touch it.
type InertTag struct {
	Handle    string
	Category  category.Category
	SourceURL string
	Inline    string
	Activated bool
}

// Markup renders the inert placeholder markup.
func (t *InertTag) Markup() string {
	if t.SourceURL != "" {
		return fmt.Sprintf(
			"<script type=\"text/plain\" data-handle=%q data-category=%q data-src=%q></script>\n",
			html.EscapeString(t.Handle),
			html.EscapeString(string(t.Category)),
			html.EscapeString(t.SourceURL),
		)
	}
	// Inline bodies stay verbatim: inside a text/plain script element the
	// body is raw text until the closing tag, and escaping would corrupt
	// the code the runtime later executes.
	return fmt.Sprintf(
		"<script type=\"text/plain\" data-handle=%q data-category=%q>%s</script>\n",
		html.EscapeString(t.Handle),
		html.EscapeString(string(t.Category)),
		t.Inline,
	)
}

// Gate rewrites registered scripts into inert placeholders before they reach
// the browser's script executor.
type Gate struct {
	registry *Registry
}

// NewGate builds a gate over a per-render registry.
func NewGate(registry *Registry) *Gate {
	return &Gate{registry: registry}
}

// Rewrite converts one descriptor into its inert form. The second return is
// false when the script has neither a remote source nor an inline body:
// there is nothing to gate and the caller emits the original unchanged.
func (g *Gate) Rewrite(d Descriptor) (*InertTag, bool) {
	if d.SourceURL == "" && d.Inline == "" {
		return nil, false
	}
	return &InertTag{
		Handle:    d.Handle,
		Category:  d.EffectiveCategory(),
		SourceURL: d.SourceURL,
		Inline:    d.Inline,
	}, true
}

// Tags rewrites every registered script, in registration order, skipping
// descriptors with no payload.
func (g *Gate) Tags() []*InertTag {
	var tags []*InertTag
	for _, d := range g.registry.All() {
		if tag, ok := g.Rewrite(d); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// RenderHead writes the inert placeholders for the document head.
func (g *Gate) RenderHead(w io.Writer) error {
	for _, tag := range g.Tags() {
		if _, err := io.WriteString(w, tag.Markup()); err != nil {
			return err
		}
	}
	return nil
}

// RenderNoscripts writes the static noscript fallbacks for the document
// footer. Fallback content is static HTML under operator control; it is not
// consent gated because it must carry no tracking value on its own.
func (g *Gate) RenderNoscripts(w io.Writer) error {
	for _, d := range g.registry.All() {
		if d.Noscript == "" {
			continue
		}
		if _, err := io.WriteString(w, d.Noscript+"\n"); err != nil {
			return err
		}
	}
	return nil
}
