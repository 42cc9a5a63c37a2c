package middleware

import (
	"net/http"

	"github.com/mssola/useragent"
)

// BotFilter drops consent submissions from crawlers. Bots never see the
// banner, so anything they POST here is noise that would pollute the audit
// trail. Filtering is advisory only: an empty or unparseable User-Agent is
// let through, matching the permissive-client posture of the endpoint.
func BotFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		if ua != "" && useragent.New(ua).Bot() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
