// Package config loads operator configuration from the environment so main
// stays lean. Ranges mirror what the settings screen enforces: retention
// 1-120 months, consent cookie lifetime 1-3650 days.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a variable is unset or out of range.
const (
	DefaultRetentionMonths    = 12
	DefaultCookieLifetimeDays = 182
	DefaultVersionHash        = "1.0"

	// DefaultErasePatterns are the cookie name prefixes erased when their
	// category is revoked. Matches the stock tracker cookies.
	DefaultErasePatterns = "_ga,_gid,_gat,_gcl_,__utm,_fbp,fr,_uet,_ttp"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers string
	KafkaTopic   string

	// AdminJWTKey signs and verifies bearer tokens for the audit export and
	// the administrative purge.
	AdminJWTKey string

	// AdminTokenHash is the bcrypt hash of a static operator token, accepted
	// as an alternative to a signed bearer token. Only the hash lives in
	// configuration; tokengen -static produces the pair.
	//
	// With both AdminJWTKey and AdminTokenHash empty the admin endpoints are
	// disabled.
	AdminTokenHash string

	Retention Retention
	Banner    Banner
	Trackers  Trackers
}

// Retention controls the audit trail horizon and the sweep cadence.
type Retention struct {
	Months        int
	SweepInterval time.Duration
}

// Banner configures the client-side banner hand-off object.
type Banner struct {
	CookieLifetimeDays int
	ErasePatterns      []string
	VersionHash        string
	HideFromBots       bool

	Layout             string
	Position           string
	Transition         string
	FlipButtons        bool
	EqualWeightButtons bool
}

// Trackers holds the operator's third-party service identities. Empty values
// disable the corresponding tracker.
type Trackers struct {
	GA4MeasurementID string
	MetaPixelID      string
	ClarityProjectID string
	GTMContainerID   string

	// PerCategory holds free-form operator scripts executed on grant,
	// keyed by category name.
	PerCategory map[string]string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:           envString("LIBRECONSENT_ADDR", ":8080"),
		Environment:    envString("LIBRECONSENT_ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:     envString("KAFKA_CONSENT_TOPIC", "libreconsent.audit.records"),
		AdminJWTKey:    os.Getenv("ADMIN_JWT_KEY"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		Retention: Retention{
			Months:        envIntClamped("RETENTION_MONTHS", DefaultRetentionMonths, 1, 120),
			SweepInterval: envDuration("SWEEP_INTERVAL", 24*time.Hour),
		},
		Banner: Banner{
			CookieLifetimeDays: envIntClamped("COOKIE_LIFETIME_DAYS", DefaultCookieLifetimeDays, 1, 3650),
			ErasePatterns:      splitPatterns(envString("COOKIES_TO_ERASE", DefaultErasePatterns)),
			VersionHash:        envString("CONSENT_VERSION_HASH", DefaultVersionHash),
			HideFromBots:       envBool("HIDE_FROM_BOTS", true),
			Layout:             envString("BANNER_LAYOUT", "box"),
			Position:           envString("BANNER_POSITION", "bottom right"),
			Transition:         envString("BANNER_TRANSITION", "slide"),
			FlipButtons:        envBool("BANNER_FLIP_BUTTONS", false),
			EqualWeightButtons: envBool("BANNER_EQUAL_WEIGHT_BUTTONS", true),
		},
		Trackers: Trackers{
			GA4MeasurementID: os.Getenv("GA4_MEASUREMENT_ID"),
			MetaPixelID:      os.Getenv("META_PIXEL_ID"),
			ClarityProjectID: os.Getenv("CLARITY_PROJECT_ID"),
			GTMContainerID:   os.Getenv("GTM_CONTAINER_ID"),
			PerCategory: map[string]string{
				"analytics":     os.Getenv("SCRIPT_ANALYTICS"),
				"marketing":     os.Getenv("SCRIPT_MARKETING"),
				"functionality": os.Getenv("SCRIPT_FUNCTIONALITY"),
			},
		},
	}
}

// GTMMode reports whether the page runs through a tag manager container
// instead of direct inert-tag gating.
func (s Server) GTMMode() bool {
	return s.Trackers.GTMContainerID != ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntClamped(key string, fallback, min, max int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitPatterns(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
