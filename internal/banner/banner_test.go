package banner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreconsent/internal/platform/config"
	"libreconsent/internal/scriptgate"
)

func baseConfig() config.Server {
	return config.Server{
		Banner: config.Banner{
			CookieLifetimeDays: 182,
			ErasePatterns:      []string{"_ga", "_fbp"},
			VersionHash:        "1.0",
			Layout:             "box",
			Position:           "bottom right",
			Transition:         "slide",
			EqualWeightButtons: true,
		},
		Trackers: config.Trackers{
			PerCategory: map[string]string{
				"analytics": "custom()",
				"bogus":     "evil()",
			},
		},
	}
}

func TestBuildClientConfig(t *testing.T) {
	cc := BuildClientConfig(baseConfig())

	assert.Equal(t, "/consent", cc.Endpoint)
	assert.Equal(t, ModeDirect, cc.Mode)
	assert.Equal(t, "1.0", cc.Version)
	assert.Equal(t, 182, cc.Cookie.ExpiresAfterDays)
	assert.Equal(t, []string{"_ga", "_fbp"}, cc.CookiesToErase)

	require.Len(t, cc.Categories, 4)
	assert.Equal(t, "necessary", cc.Categories[0].Name)
	assert.True(t, cc.Categories[0].ReadOnly)
	assert.True(t, cc.Categories[0].Enabled)
	for _, entry := range cc.Categories[1:] {
		assert.False(t, entry.ReadOnly, entry.Name)
		assert.False(t, entry.Enabled, entry.Name)
	}

	assert.Equal(t, map[string]string{"analytics": "custom()"}, cc.CategoryScripts,
		"unknown category scripts are dropped")
}

func TestBuildClientConfigGTMMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Trackers.GTMContainerID = "GTM-ABC123"

	cc := BuildClientConfig(cfg)
	assert.Equal(t, ModeGTM, cc.Mode)
	assert.Equal(t, "GTM-ABC123", cc.GTMContainerID)
}

func TestRenderHeadDirect(t *testing.T) {
	reg := scriptgate.NewRegistry()
	require.NoError(t, scriptgate.RegisterGA4(reg, "G-TEST1"))

	r := NewRenderer(BuildClientConfig(baseConfig()), scriptgate.NewGate(reg))
	var b strings.Builder
	require.NoError(t, r.RenderHead(&b))
	out := b.String()

	cfgAt := strings.Index(out, "window.LCC_CONFIG=")
	tagAt := strings.Index(out, `type="text/plain"`)
	require.GreaterOrEqual(t, cfgAt, 0)
	require.GreaterOrEqual(t, tagAt, 0)
	assert.Less(t, cfgAt, tagAt, "config object precedes the placeholders")

	start := strings.Index(out, "{")
	end := strings.Index(out, ";</script>")
	require.Greater(t, end, start)
	var decoded ClientConfig
	require.NoError(t, json.Unmarshal([]byte(out[start:end]), &decoded))
	assert.Equal(t, ModeDirect, decoded.Mode)
}

func TestRenderHeadGTM(t *testing.T) {
	cfg := baseConfig()
	cfg.Trackers.GTMContainerID = "GTM-XYZ"

	reg := scriptgate.NewRegistry()
	require.NoError(t, scriptgate.RegisterGA4(reg, "G-TEST1"))

	r := NewRenderer(BuildClientConfig(cfg), scriptgate.NewGate(reg))
	var b strings.Builder
	require.NoError(t, r.RenderHead(&b))
	out := b.String()

	assert.Contains(t, out, "googletagmanager.com/gtm.js?id=")
	assert.NotContains(t, out, `type="text/plain"`, "gtm mode emits no direct placeholders")
}

func TestRenderFooter(t *testing.T) {
	t.Run("direct mode carries noscript fallbacks", func(t *testing.T) {
		reg := scriptgate.NewRegistry()
		require.NoError(t, scriptgate.RegisterMetaPixel(reg, "42"))

		r := NewRenderer(BuildClientConfig(baseConfig()), scriptgate.NewGate(reg))
		var b strings.Builder
		require.NoError(t, r.RenderFooter(&b))
		assert.Contains(t, b.String(), "facebook.com/tr?id=42")
	})

	t.Run("gtm mode carries container iframe", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Trackers.GTMContainerID = "GTM-XYZ"

		r := NewRenderer(BuildClientConfig(cfg), scriptgate.NewGate(scriptgate.NewRegistry()))
		var b strings.Builder
		require.NoError(t, r.RenderFooter(&b))
		assert.Contains(t, b.String(), "googletagmanager.com/ns.html?id=GTM-XYZ")
	})
}

func TestRenderRevisitButton(t *testing.T) {
	r := NewRenderer(BuildClientConfig(baseConfig()), scriptgate.NewGate(scriptgate.NewRegistry()))

	var b strings.Builder
	require.NoError(t, r.RenderRevisitButton(&b, ""))
	assert.Contains(t, b.String(), "data-lcc-revisit")
	assert.Contains(t, b.String(), ">Preferences<")

	b.Reset()
	require.NoError(t, r.RenderRevisitButton(&b, `Cookies & <you>`))
	assert.Contains(t, b.String(), "Cookies &amp; &lt;you&gt;")
}
