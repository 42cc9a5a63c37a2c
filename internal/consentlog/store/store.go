// Package store persists the append-only consent audit trail and the server
// hashing secret.
package store

import (
	"context"
	"time"

	"libreconsent/internal/consentlog/models"
)

// Store is the audit trail persistence interface. The trail is append-only:
// no update path exists, and the only delete is the age-predicate sweep.
// Error Contract:
// - all methods return nil on success or wrapped errors on failure
type Store interface {
	Append(ctx context.Context, record *models.Record) error
	List(ctx context.Context, filter *models.RecordFilter) ([]*models.Record, error)
	Count(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SecretStore persists the consent hashing secret.
type SecretStore interface {
	// Ensure stores candidate if no secret exists yet and returns the secret
	// now in effect. Concurrent callers all converge on the same value.
	Ensure(ctx context.Context, candidate string) (string, error)
	// Get returns the stored secret, or empty when none is provisioned.
	Get(ctx context.Context) (string, error)
}
