// Package main provides a CLI tool for minting admin credentials for the
// consent export and purge endpoints. The default mode signs a short-lived
// bearer token; -static generates a long-lived operator token together with
// the bcrypt hash the server stores instead of the plaintext.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"libreconsent/pkg/secrets"
)

const defaultTokenTTL = time.Hour

type tokenOutput struct {
	Token     string `json:"token"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

type staticTokenOutput struct {
	Token     string `json:"token"`
	TokenHash string `json:"token_hash"`
	Usage     string `json:"usage"`
}

func main() {
	key := flag.String("key", os.Getenv("ADMIN_JWT_KEY"), "HMAC signing key (defaults to ADMIN_JWT_KEY)")
	subject := flag.String("subject", "operator", "Token subject")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	static := flag.Bool("static", false, "Generate a static operator token and its bcrypt hash instead of a signed token")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *static {
		mintStaticToken(*asJSON)
		return
	}

	if *key == "" {
		fmt.Fprintln(os.Stderr, "a signing key is required: pass -key or set ADMIN_JWT_KEY")
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  *subject,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*key))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Usage:     "curl -H 'Authorization: Bearer <token>' http://localhost:8080/consent/export",
		}
		writeJSON(out)
		return
	}
	fmt.Println(token)
}

// mintStaticToken emits a fresh operator token and the hash to set as
// ADMIN_TOKEN_HASH. Only the hash reaches server configuration; the token is
// shown once, here.
func mintStaticToken(asJSON bool) {
	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash token: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		writeJSON(staticTokenOutput{
			Token:     token,
			TokenHash: hash,
			Usage:     "set ADMIN_TOKEN_HASH=<token_hash> on the server; authenticate with 'Authorization: Bearer <token>'",
		})
		return
	}
	fmt.Printf("token:      %s\n", token)
	fmt.Printf("token hash: %s\n", hash)
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
