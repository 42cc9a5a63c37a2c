// Package models defines the consent audit record and its transport shapes.
package models

import "time"

// Record sources. The value is client-declared and stored verbatim.
const (
	SourceAccept = "accept"
	SourceChange = "change"
)

// ValidSource reports whether the submission source is a known transition.
func ValidSource(s string) bool {
	return s == SourceAccept || s == SourceChange
}

// Record is one append-only audit row. It carries no IP address, no user
// agent, and no account linkage: ConsentHash is the only identity and is a
// keyed transform of the client identifier.
type Record struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ConsentHash string    `json:"consent_hash"`
	Categories  []string  `json:"categories"`
	VersionHash string    `json:"version_hash"`
	Source      string    `json:"source"`
}

// RecordFilter narrows an export listing.
type RecordFilter struct {
	Since *time.Time
	Limit int
}

// ExportResult pairs an export page with the cached total row count.
type ExportResult struct {
	Records []*Record `json:"records"`
	Total   int64     `json:"total"`
}
