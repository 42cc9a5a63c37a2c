// Package banner builds the client hand-off: the injected configuration
// object the consent runtime boots from, and the head/footer markup that
// carries it into the page alongside the inert script placeholders.
package banner

import (
	"libreconsent/internal/category"
	"libreconsent/internal/platform/config"
)

// Mode selects how granted scripts reach the page.
type Mode string

const (
	// ModeDirect gates inert placeholders that the runtime activates itself.
	ModeDirect Mode = "direct"
	// ModeGTM delegates activation to a tag-manager container driven by
	// consent-mode events; no direct inert tags are emitted.
	ModeGTM Mode = "gtm"
)

// CategoryEntry describes one consent category in the client table.
type CategoryEntry struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	ReadOnly bool   `json:"readOnly"`
	Enabled  bool   `json:"enabled"`
}

// GUIOptions carries the banner presentation knobs.
type GUIOptions struct {
	Layout             string `json:"layout"`
	Position           string `json:"position"`
	Transition         string `json:"transition"`
	FlipButtons        bool   `json:"flipButtons"`
	EqualWeightButtons bool   `json:"equalWeightButtons"`
}

// Cookie carries the consent cookie parameters.
type Cookie struct {
	ExpiresAfterDays int `json:"expiresAfterDays"`
}

// Texts holds the banner copy. Fixed English strings; translation tables are
// out of scope.
type Texts struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AcceptAll   string `json:"acceptAll"`
	RejectAll   string `json:"rejectAll"`
	Preferences string `json:"preferences"`
	Save        string `json:"save"`
}

// ClientConfig is the single JSON object injected into the page before the
// runtime script. Everything the client needs to operate without a second
// round trip lives here.
type ClientConfig struct {
	Endpoint        string            `json:"endpoint"`
	Version         string            `json:"version"`
	Mode            Mode              `json:"mode"`
	GTMContainerID  string            `json:"gtmContainerId,omitempty"`
	Categories      []CategoryEntry   `json:"categories"`
	CategoryScripts map[string]string `json:"categoryScripts"`
	CookiesToErase  []string          `json:"cookiesToErase"`
	Cookie          Cookie            `json:"cookie"`
	GUI             GUIOptions        `json:"gui"`
	Texts           Texts             `json:"texts"`
}

var categoryLabels = map[category.Category]string{
	category.Necessary:     "Strictly necessary",
	category.Analytics:     "Analytics",
	category.Marketing:     "Marketing",
	category.Functionality: "Functionality",
}

// BuildClientConfig assembles the injected object from operator config.
func BuildClientConfig(cfg config.Server) ClientConfig {
	mode := ModeDirect
	if cfg.GTMMode() {
		mode = ModeGTM
	}

	entries := make([]CategoryEntry, 0, len(category.All))
	for _, cat := range category.All {
		entries = append(entries, CategoryEntry{
			Name:     string(cat),
			Label:    categoryLabels[cat],
			ReadOnly: cat == category.Necessary,
			Enabled:  cat == category.Necessary,
		})
	}

	scripts := make(map[string]string)
	for name, body := range cfg.Trackers.PerCategory {
		if body != "" && category.Category(name).IsValid() {
			scripts[name] = body
		}
	}

	return ClientConfig{
		Endpoint:        "/consent",
		Version:         cfg.Banner.VersionHash,
		Mode:            mode,
		GTMContainerID:  cfg.Trackers.GTMContainerID,
		Categories:      entries,
		CategoryScripts: scripts,
		CookiesToErase:  cfg.Banner.ErasePatterns,
		Cookie:          Cookie{ExpiresAfterDays: cfg.Banner.CookieLifetimeDays},
		GUI: GUIOptions{
			Layout:             cfg.Banner.Layout,
			Position:           cfg.Banner.Position,
			Transition:         cfg.Banner.Transition,
			FlipButtons:        cfg.Banner.FlipButtons,
			EqualWeightButtons: cfg.Banner.EqualWeightButtons,
		},
		Texts: Texts{
			Title:       "We value your privacy",
			Description: "We use cookies to improve your experience. Choose which categories you allow.",
			AcceptAll:   "Accept all",
			RejectAll:   "Reject all",
			Preferences: "Preferences",
			Save:        "Save preferences",
		},
	}
}
