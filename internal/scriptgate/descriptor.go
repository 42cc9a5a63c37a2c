// Package scriptgate keeps third-party scripts inert until the client runtime
// activates them. Every script a page would emit is registered here and
// rewritten into a non-executing placeholder annotated with its consent
// category; the browser never sees an executable src or script body before
// the matching category is granted.
package scriptgate

import (
	"strings"

	"libreconsent/internal/category"
	dErrors "libreconsent/pkg/domain-errors"
)

// Descriptor identifies one registered script and its execution payload.
// A script carries a remote source, an inline body, or neither (in which
// case there is nothing to gate and the gate passes it through).
type Descriptor struct {
	// Handle is an opaque identifier, unique per registered script within
	// one page render.
	Handle string

	// Category decides which consent grant releases the script. When left
	// empty or invalid the gate falls back to analytics: the script stays
	// gated rather than executing unclassified.
	Category category.Category

	// SourceURL is the remote script location, carried as inert data in the
	// placeholder rather than as an executable src attribute.
	SourceURL string

	// Inline is the script body, carried as inert text content.
	Inline string

	// Noscript is optional static fallback HTML emitted for script-less
	// clients. It must carry no tracking value without consent, so only
	// non-identifying visuals belong here.
	Noscript string
}

// Validate checks the descriptor's structural invariants.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Handle) == "" {
		return dErrors.New(dErrors.CodeValidation, "script handle is required")
	}
	return nil
}

// EffectiveCategory resolves the category used for gating. Unset or unknown
// categories collapse to analytics so a misconfigured script is still gated
// behind an explicit grant instead of running free.
func (d Descriptor) EffectiveCategory() category.Category {
	if d.Category.IsValid() {
		return d.Category
	}
	return category.Analytics
}
