package scriptgate

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"libreconsent/internal/category"
)

// Stock tracker registrations. Each helper registers the tracker's remote
// loader and its inline init under the handle prefix, so every piece is
// gated behind the right category. IDs come from operator configuration;
// blank IDs register nothing.

const handlePrefix = "consent-"

// RegisterGA4 registers the Google Analytics 4 loader and init snippet under
// the analytics category. The init config disables IP collection and ad
// personalization signals; GA4 only regains them through the consent-mode
// vector after an explicit grant.
func RegisterGA4(r *Registry, measurementID string) error {
	id := strings.TrimSpace(measurementID)
	if id == "" {
		return nil
	}

	if err := r.Register(Descriptor{
		Handle:    handlePrefix + "ga4-loader",
		Category:  category.Analytics,
		SourceURL: "https://www.googletagmanager.com/gtag/js?id=" + url.QueryEscape(id),
	}); err != nil {
		return err
	}

	init := fmt.Sprintf(
		`window.dataLayer=window.dataLayer||[];function gtag(){dataLayer.push(arguments);}gtag("js",new Date());gtag("config",%q,{anonymize_ip:true,allow_google_signals:false,allow_ad_personalization_signals:false});`,
		id,
	)
	return r.Register(Descriptor{
		Handle:   handlePrefix + "ga4-init",
		Category: category.Analytics,
		Inline:   init,
	})
}

// RegisterMetaPixel registers the Meta Pixel loader, init snippet, and the
// static noscript pixel fallback under the marketing category.
func RegisterMetaPixel(r *Registry, pixelID string) error {
	id := strings.TrimSpace(pixelID)
	if id == "" {
		return nil
	}

	noscript := fmt.Sprintf(
		`<noscript data-category="marketing"><img height="1" width="1" style="display:none" alt="" src="https://www.facebook.com/tr?id=%s&ev=PageView&noscript=1"/></noscript>`,
		html.EscapeString(id),
	)
	if err := r.Register(Descriptor{
		Handle:    handlePrefix + "meta",
		Category:  category.Marketing,
		SourceURL: "https://connect.facebook.net/en_US/fbevents.js",
		Noscript:  noscript,
	}); err != nil {
		return err
	}

	init := `!(function(f,b,e,v,n,t,s){if(f.fbq)return;n=f.fbq=function(){n.callMethod?n.callMethod.apply(n,arguments):n.queue.push(arguments)};if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version="2.0";n.queue=[];t=b.createElement(e);t.async=!0;t.src=v;s=b.getElementsByTagName(e)[0];s.parentNode.insertBefore(t,s)})(window,document,"script","https://connect.facebook.net/en_US/fbevents.js");` +
		fmt.Sprintf(`fbq("init",%q);fbq("track","PageView");`, id)
	return r.Register(Descriptor{
		Handle:   handlePrefix + "meta-init",
		Category: category.Marketing,
		Inline:   init,
	})
}

// RegisterClarity registers the Microsoft Clarity loader and init snippet
// under the analytics category.
func RegisterClarity(r *Registry, projectID string) error {
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil
	}

	if err := r.Register(Descriptor{
		Handle:    handlePrefix + "clarity",
		Category:  category.Analytics,
		SourceURL: "https://www.clarity.ms/tag/" + url.PathEscape(id),
	}); err != nil {
		return err
	}

	init := fmt.Sprintf(
		`(function(c,l,a,r,i,t,y){c[a]=c[a]||function(){(c[a].q=c[a].q||[]).push(arguments)};t=l.createElement(r);t.async=1;t.src="https://www.clarity.ms/tag/"+i;y=l.getElementsByTagName(r)[0];y.parentNode.insertBefore(t,y);})(window,document,"clarity","script",%q);`,
		id,
	)
	return r.Register(Descriptor{
		Handle:   handlePrefix + "clarity-init",
		Category: category.Analytics,
		Inline:   init,
	})
}
