package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"libreconsent/internal/consentlog/hasher"
	"libreconsent/internal/consentlog/models"
	"libreconsent/internal/consentlog/store"
	"libreconsent/internal/platform/kafka/producer"
	dErrors "libreconsent/pkg/domain-errors"
)

const validConsentID = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.InMemoryStore
	svc   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.New()
	s.svc = newTestService(s.T(), s.store)
}

func newTestService(t *testing.T, st Store, opts ...Option) *Service {
	t.Helper()
	h, err := hasher.New("test-secret")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, h, logger, opts...)
}

func (s *ServiceSuite) TestRecordAppendsHashedRow() {
	record, err := s.svc.Record(s.ctx, validConsentID, []string{"analytics", "marketing"}, "1.0", models.SourceAccept)
	s.Require().NoError(err)

	s.NotEqual(validConsentID, record.ConsentHash, "raw identifier must never be stored")
	s.Regexp("^[a-f0-9]{64}$", record.ConsentHash)
	s.Equal([]string{"analytics", "marketing"}, record.Categories)
	s.Equal("1.0", record.VersionHash)
	s.Equal(models.SourceAccept, record.Source)
	s.Equal(time.UTC, record.CreatedAt.Location())

	stored, err := s.store.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal(record.ConsentHash, stored[0].ConsentHash)
}

func (s *ServiceSuite) TestRecordSameIdentitySameHash() {
	first, err := s.svc.Record(s.ctx, validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
	s.Require().NoError(err)
	second, err := s.svc.Record(s.ctx, validConsentID, nil, "1.0", models.SourceChange)
	s.Require().NoError(err)

	s.Equal(first.ConsentHash, second.ConsentHash,
		"repeated submissions from one browser collapse to one identity")
}

func (s *ServiceSuite) TestRecordRejectsMalformedIdentifier() {
	for _, id := range []string{
		"",
		"short",
		validConsentID[:63] + "G",
		validConsentID + "0",
	} {
		_, err := s.svc.Record(s.ctx, id, []string{"analytics"}, "1.0", models.SourceAccept)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidIdentifier), "id %q", id)
	}

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count, "rejected submissions write nothing")
}

func (s *ServiceSuite) TestRecordFiltersUnknownCategories() {
	record, err := s.svc.Record(s.ctx, validConsentID,
		[]string{"marketing", "bogus", "analytics", "analytics"}, "1.0", models.SourceAccept)
	s.Require().NoError(err)
	s.Equal([]string{"analytics", "marketing"}, record.Categories,
		"unknown names dropped, duplicates collapsed, canonical order")
}

func (s *ServiceSuite) TestRecordSourceHandling() {
	record, err := s.svc.Record(s.ctx, validConsentID, nil, "", "")
	s.Require().NoError(err)
	s.Equal(models.SourceAccept, record.Source, "empty source defaults to accept")
	s.Equal("1.0", record.VersionHash, "empty version defaults to 1.0")

	_, err = s.svc.Record(s.ctx, validConsentID, nil, "1.0", "replay")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestRecordWithoutSecretIsConfigError() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(s.store, nil, logger)

	_, err := svc.Record(s.ctx, validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
	s.True(dErrors.HasCode(err, dErrors.CodeConfig), "unprovisioned secret is a hard stop")

	count, cErr := s.store.Count(s.ctx)
	s.Require().NoError(cErr)
	s.Zero(count)
}

func (s *ServiceSuite) TestRecordStorageFailure() {
	svc := newTestService(s.T(), failingStore{})
	_, err := svc.Record(s.ctx, validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
	s.True(dErrors.HasCode(err, dErrors.CodeStorage))
}

func (s *ServiceSuite) TestExport() {
	for i := 0; i < 3; i++ {
		_, err := s.svc.Record(s.ctx, validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
		s.Require().NoError(err)
	}

	result, err := s.svc.Export(s.ctx, &models.RecordFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(result.Records, 2)
	s.Equal(int64(3), result.Total, "total counts beyond the page limit")
}

func (s *ServiceSuite) TestExportEmpty() {
	result, err := s.svc.Export(s.ctx, nil)
	s.Require().NoError(err)
	s.NotNil(result.Records)
	s.Empty(result.Records)
	s.Zero(result.Total)
}

func (s *ServiceSuite) TestSweep() {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, months := range []int{1, 11, 13, 24} {
		s.Require().NoError(s.store.Append(s.ctx, &models.Record{
			CreatedAt:   now.AddDate(0, -months, 0),
			ConsentHash: validConsentID,
			VersionHash: "1.0",
			Source:      models.SourceAccept,
		}))
	}
	svc := newTestService(s.T(), s.store, WithClock(func() time.Time { return now }))

	deleted, err := svc.Sweep(s.ctx, 12)
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	again, err := svc.Sweep(s.ctx, 12)
	s.Require().NoError(err)
	s.Zero(again, "sweep is idempotent")
}

func (s *ServiceSuite) TestSweepRejectsOutOfRangeRetention() {
	for _, months := range []int{0, -1, 121} {
		_, err := s.svc.Sweep(s.ctx, months)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "months %d", months)
	}
}

func TestRecordMirrorsToKafka(t *testing.T) {
	mirror := &captureMirror{messages: make(chan *producer.Message, 1)}
	svc := newTestService(t, store.New(), WithMirror(mirror, "consent.audit"))

	record, err := svc.Record(context.Background(), validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
	require.NoError(t, err)

	select {
	case msg := <-mirror.messages:
		assert.Equal(t, "consent.audit", msg.Topic)
		assert.Equal(t, record.ConsentHash, string(msg.Key))
		assert.Contains(t, string(msg.Value), `"analytics"`)
	case <-time.After(2 * time.Second):
		t.Fatal("mirror publish never happened")
	}
}

func TestMirrorFailureDoesNotFailRecord(t *testing.T) {
	mirror := &captureMirror{err: assert.AnError, messages: make(chan *producer.Message, 1)}
	st := store.New()
	svc := newTestService(t, st, WithMirror(mirror, "consent.audit"))

	_, err := svc.Record(context.Background(), validConsentID, []string{"analytics"}, "1.0", models.SourceAccept)
	require.NoError(t, err)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "database row lands regardless of mirror outcome")
}

type failingStore struct{}

func (failingStore) Append(context.Context, *models.Record) error { return assert.AnError }
func (failingStore) List(context.Context, *models.RecordFilter) ([]*models.Record, error) {
	return nil, assert.AnError
}
func (failingStore) Count(context.Context) (int64, error) { return 0, assert.AnError }
func (failingStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, assert.AnError
}

type captureMirror struct {
	messages chan *producer.Message
	err      error
}

func (m *captureMirror) Produce(_ context.Context, msg *producer.Message) error {
	m.messages <- msg
	return m.err
}
