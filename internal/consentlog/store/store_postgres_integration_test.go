//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"libreconsent/internal/consentlog/models"
	"libreconsent/internal/consentlog/store"
	"libreconsent/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	secrets  *store.PostgresSecretStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.secrets = store.NewPostgresSecretStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) appendAt(ctx context.Context, createdAt time.Time, hash string) *models.Record {
	record := &models.Record{
		CreatedAt:   createdAt,
		ConsentHash: hash,
		Categories:  []string{"analytics", "marketing"},
		VersionHash: "1.0",
		Source:      models.SourceAccept,
	}
	s.Require().NoError(s.store.Append(ctx, record))
	return record
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := s.appendAt(ctx, now.Add(-time.Hour), strings64("a"))
	second := s.appendAt(ctx, now, strings64("b"))
	s.Greater(second.ID, first.ID)

	records, err := s.store.List(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(strings64("b"), records[0].ConsentHash, "newest first")
	s.Equal([]string{"analytics", "marketing"}, records[0].Categories)
	s.Equal(models.SourceAccept, records[0].Source)
	s.WithinDuration(now, records[0].CreatedAt, time.Second)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *PostgresStoreSuite) TestListSinceAndLimit() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.appendAt(ctx, now.AddDate(0, -2, 0), strings64("old"))
	s.appendAt(ctx, now.Add(-time.Hour), strings64("mid"))
	s.appendAt(ctx, now, strings64("new"))

	since := now.AddDate(0, -1, 0)
	records, err := s.store.List(ctx, &models.RecordFilter{Since: &since, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(strings64("new"), records[0].ConsentHash)
}

func (s *PostgresStoreSuite) TestDeleteOlderThan() {
	ctx := context.Background()
	now := time.Now().UTC()

	for _, months := range []int{1, 11, 13, 24} {
		s.appendAt(ctx, now.AddDate(0, -months, 0), strings64("x"))
	}

	deleted, err := s.store.DeleteOlderThan(ctx, now.AddDate(0, -12, 0))
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	again, err := s.store.DeleteOlderThan(ctx, now.AddDate(0, -12, 0))
	s.Require().NoError(err)
	s.Zero(again)
}

func (s *PostgresStoreSuite) TestSecretEnsureIsRaceFree() {
	ctx := context.Background()

	const goroutines = 20
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got, err := s.secrets.Ensure(ctx, candidateSecret(idx))
			s.NoError(err)
			results[idx] = got
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		s.Equal(results[0], got, "all provisioners converge on one secret")
	}

	stored, err := s.secrets.Get(ctx)
	s.Require().NoError(err)
	s.Equal(results[0], stored)
}

func strings64(seed string) string {
	out := make([]byte, 0, 64)
	for len(out) < 64 {
		out = append(out, seed[len(out)%len(seed)])
	}
	hex := "0123456789abcdef"
	for i := range out {
		out[i] = hex[int(out[i])%16]
	}
	return string(out)
}

func candidateSecret(idx int) string {
	return strings64(string(rune('a' + idx%26)))
}
