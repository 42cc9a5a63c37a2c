package banner

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/url"

	"libreconsent/internal/scriptgate"
	dErrors "libreconsent/pkg/domain-errors"
)

// Renderer emits the page snippets: injected config, inert placeholders or
// GTM bootstrap in the head, noscript fallbacks and the revisit button in the
// footer.
type Renderer struct {
	config ClientConfig
	gate   *scriptgate.Gate
}

// NewRenderer builds a renderer over the client config and the per-render
// script gate.
func NewRenderer(cfg ClientConfig, gate *scriptgate.Gate) *Renderer {
	return &Renderer{config: cfg, gate: gate}
}

// RenderHead writes the head snippet: the injected configuration object
// first, so the runtime finds it on boot, then either the inert placeholders
// (direct mode) or the GTM bootstrap (gtm mode). The bootstrap itself is not
// gated; consent-mode defaults deny everything before the first grant.
func (r *Renderer) RenderHead(w io.Writer) error {
	payload, err := json.Marshal(r.config)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode client config")
	}
	if _, err := fmt.Fprintf(w, "<script>window.LCC_CONFIG=%s;</script>\n", payload); err != nil {
		return err
	}

	if r.config.Mode == ModeGTM {
		return r.renderGTMBootstrap(w)
	}
	return r.gate.RenderHead(w)
}

// RenderFooter writes the footer snippet: noscript fallbacks in direct mode,
// the GTM noscript iframe in gtm mode.
func (r *Renderer) RenderFooter(w io.Writer) error {
	if r.config.Mode == ModeGTM {
		_, err := fmt.Fprintf(w,
			`<noscript><iframe src="https://www.googletagmanager.com/ns.html?id=%s" height="0" width="0" style="display:none;visibility:hidden"></iframe></noscript>%s`,
			url.QueryEscape(r.config.GTMContainerID), "\n",
		)
		return err
	}
	return r.gate.RenderNoscripts(w)
}

// RenderRevisitButton writes a preferences-reopen button for embedding in
// footers or privacy pages.
func (r *Renderer) RenderRevisitButton(w io.Writer, label string) error {
	if label == "" {
		label = r.config.Texts.Preferences
	}
	_, err := fmt.Fprintf(w,
		"<button type=\"button\" data-lcc-revisit class=\"lcc-revisit\">%s</button>\n",
		html.EscapeString(label),
	)
	return err
}

func (r *Renderer) renderGTMBootstrap(w io.Writer) error {
	id := r.config.GTMContainerID
	_, err := fmt.Fprintf(w,
		`<script>(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({"gtm.start":new Date().getTime(),event:"gtm.js"});var f=d.getElementsByTagName(s)[0],j=d.createElement(s),dl=l!="dataLayer"?"&l="+l:"";j.async=true;j.src="https://www.googletagmanager.com/gtm.js?id="+i+dl;f.parentNode.insertBefore(j,f);})(window,document,"script","dataLayer",%q);</script>%s`,
		id, "\n",
	)
	return err
}
