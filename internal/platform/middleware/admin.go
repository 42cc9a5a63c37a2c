package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"libreconsent/pkg/secrets"
)

// AdminAuth guards operator-only endpoints (audit export, administrative
// purge). Two credentials are accepted on the Authorization header:
//
//   - an HMAC-signed bearer token carrying role=admin (minted by tokengen),
//     verified against signingKey;
//   - a static operator token, verified against its bcrypt hash at rest
//     (tokenHash, from tokengen -static). The plaintext token is never
//     stored server-side.
//
// The consent submission endpoint itself stays anonymous; only the review
// surface needs authentication. When neither credential is configured the
// endpoints are disabled outright rather than left open.
func AdminAuth(signingKey, tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signingKey == "" && tokenHash == "" {
				writeAuthError(w, http.StatusNotFound, "not_found")
				return
			}

			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if signingKey != "" {
				claims := jwt.MapClaims{}
				token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(signingKey), nil
				})
				if err == nil && token.Valid {
					if role, _ := claims["role"].(string); role != "admin" {
						writeAuthError(w, http.StatusForbidden, "forbidden")
						return
					}
					next.ServeHTTP(w, r)
					return
				}
			}

			if tokenHash != "" && secrets.Verify(tokenStr, tokenHash) == nil {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("rejected admin credential", "path", r.URL.Path)
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `"}`))
}
