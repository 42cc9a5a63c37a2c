package scriptgate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreconsent/internal/category"
	dErrors "libreconsent/pkg/domain-errors"
)

func TestRegistryRegister(t *testing.T) {
	t.Run("registers and resolves", func(t *testing.T) {
		r := NewRegistry()
		d := Descriptor{Handle: "consent-ga4-loader", Category: category.Analytics, SourceURL: "https://example.com/a.js"}
		require.NoError(t, r.Register(d))

		got, err := r.Resolve("consent-ga4-loader")
		require.NoError(t, err)
		assert.Equal(t, d, got)
	})

	t.Run("duplicate handle conflicts", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(Descriptor{Handle: "x", Inline: "a()"}))

		err := r.Register(Descriptor{Handle: "x", Inline: "b()"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("blank handle rejected", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(Descriptor{Handle: "   "})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown handle", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Resolve("missing")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("preserves registration order", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(Descriptor{Handle: "b", Inline: "1"}))
		require.NoError(t, r.Register(Descriptor{Handle: "a", Inline: "2"}))
		require.NoError(t, r.Register(Descriptor{Handle: "c", Inline: "3"}))

		var handles []string
		for _, d := range r.All() {
			handles = append(handles, d.Handle)
		}
		assert.Equal(t, []string{"b", "a", "c"}, handles)
	})
}

func TestEffectiveCategory(t *testing.T) {
	assert.Equal(t, category.Marketing, Descriptor{Category: category.Marketing}.EffectiveCategory())
	assert.Equal(t, category.Analytics, Descriptor{}.EffectiveCategory(), "unset defaults to analytics")
	assert.Equal(t, category.Analytics, Descriptor{Category: "bogus"}.EffectiveCategory(), "unknown defaults to analytics")
}
