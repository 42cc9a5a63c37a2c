package scriptgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreconsent/internal/category"
)

func TestRewriteRemoteScript(t *testing.T) {
	g := NewGate(NewRegistry())
	tag, ok := g.Rewrite(Descriptor{
		Handle:    "consent-clarity",
		Category:  category.Analytics,
		SourceURL: "https://www.clarity.ms/tag/abc123",
	})
	require.True(t, ok)

	markup := tag.Markup()
	assert.Contains(t, markup, `type="text/plain"`)
	assert.Contains(t, markup, `data-category="analytics"`)
	assert.Contains(t, markup, `data-src="https://www.clarity.ms/tag/abc123"`)
	assert.NotContains(t, markup, ` src=`, "placeholder must not carry an executable src attribute")
	assert.False(t, tag.Activated)
}

func TestRewriteInlineScript(t *testing.T) {
	g := NewGate(NewRegistry())
	tag, ok := g.Rewrite(Descriptor{
		Handle:   "consent-ga4-init",
		Category: category.Analytics,
		Inline:   `gtag("js",new Date());`,
	})
	require.True(t, ok)

	markup := tag.Markup()
	assert.Contains(t, markup, `type="text/plain"`)
	assert.Contains(t, markup, `gtag("js",new Date());`, "inline body carried verbatim")
	assert.NotContains(t, markup, "data-src")
}

func TestRewriteEmptyPayloadPassesThrough(t *testing.T) {
	g := NewGate(NewRegistry())
	tag, ok := g.Rewrite(Descriptor{Handle: "bare"})
	assert.False(t, ok, "nothing to gate")
	assert.Nil(t, tag)
}

func TestRewriteUnsetCategoryStaysGated(t *testing.T) {
	g := NewGate(NewRegistry())
	tag, ok := g.Rewrite(Descriptor{Handle: "unclassified", SourceURL: "https://example.com/t.js"})
	require.True(t, ok)
	assert.Equal(t, category.Analytics, tag.Category)
	assert.Contains(t, tag.Markup(), `data-category="analytics"`)
}

func TestRenderHead(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Descriptor{Handle: "one", Category: category.Analytics, SourceURL: "https://example.com/1.js"}))
	require.NoError(t, reg.Register(Descriptor{Handle: "skipped"}))
	require.NoError(t, reg.Register(Descriptor{Handle: "two", Category: category.Marketing, Inline: "fbq()"}))

	var b strings.Builder
	require.NoError(t, NewGate(reg).RenderHead(&b))
	out := b.String()

	assert.Equal(t, 2, strings.Count(out, "<script"), "payload-less descriptor emits nothing")
	assert.NotContains(t, out, `type="text/javascript"`)
	one := strings.Index(out, `data-handle="one"`)
	two := strings.Index(out, `data-handle="two"`)
	assert.Less(t, one, two, "registration order preserved")
}

func TestRenderNoscripts(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterMetaPixel(reg, "987654"))

	var b strings.Builder
	require.NoError(t, NewGate(reg).RenderNoscripts(&b))

	assert.Contains(t, b.String(), "facebook.com/tr?id=987654")
	assert.Contains(t, b.String(), `<noscript data-category="marketing">`)
}

func TestStockServices(t *testing.T) {
	t.Run("ga4 registers loader and init as analytics", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, RegisterGA4(reg, "G-TEST123"))
		assert.Equal(t, 2, reg.Len())

		loader, err := reg.Resolve("consent-ga4-loader")
		require.NoError(t, err)
		assert.Equal(t, category.Analytics, loader.Category)
		assert.Contains(t, loader.SourceURL, "G-TEST123")

		init, err := reg.Resolve("consent-ga4-init")
		require.NoError(t, err)
		assert.Contains(t, init.Inline, "anonymize_ip:true")
	})

	t.Run("meta pixel registers as marketing", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, RegisterMetaPixel(reg, "555"))

		loader, err := reg.Resolve("consent-meta")
		require.NoError(t, err)
		assert.Equal(t, category.Marketing, loader.Category)
		assert.NotEmpty(t, loader.Noscript)
	})

	t.Run("blank ids register nothing", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, RegisterGA4(reg, "  "))
		require.NoError(t, RegisterMetaPixel(reg, ""))
		require.NoError(t, RegisterClarity(reg, ""))
		assert.Equal(t, 0, reg.Len())
	})
}
