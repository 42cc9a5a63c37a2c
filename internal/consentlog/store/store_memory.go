package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"libreconsent/internal/consentlog/models"
)

// InMemoryStore keeps the audit trail in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []*models.Record
}

// New constructs an empty in-memory audit store.
func New() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = s.nextID
	s.nextID++
	copyRecord := *record
	copyRecord.Categories = append([]string(nil), record.Categories...)
	s.records = append(s.records, &copyRecord)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter *models.RecordFilter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Record
	for _, record := range s.records {
		if filter != nil && filter.Since != nil && record.CreatedAt.Before(*filter.Since) {
			continue
		}
		copyRecord := *record
		copyRecord.Categories = append([]string(nil), record.Categories...)
		out = append(out, &copyRecord)
	}

	// Newest first, matching the postgres ordering.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *InMemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*models.Record
	var deleted int64
	for _, record := range s.records {
		if record.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return deleted, nil
}

// InMemorySecretStore keeps the hashing secret in memory for tests.
type InMemorySecretStore struct {
	mu     sync.Mutex
	secret string
}

// NewSecretStore constructs an empty in-memory secret store.
func NewSecretStore() *InMemorySecretStore {
	return &InMemorySecretStore{}
}

func (s *InMemorySecretStore) Ensure(_ context.Context, candidate string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret == "" {
		s.secret = candidate
	}
	return s.secret, nil
}

func (s *InMemorySecretStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret, nil
}
