// Package service implements the consent audit pipeline: validate, hash,
// append, and the retention sweep.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libreconsent/internal/category"
	"libreconsent/internal/consentlog/hasher"
	"libreconsent/internal/consentlog/models"
	"libreconsent/internal/platform/kafka/producer"
	"libreconsent/internal/platform/metrics"
	"libreconsent/internal/platform/redis"
	dErrors "libreconsent/pkg/domain-errors"
	"libreconsent/pkg/validation"
)

// Store defines the persistence interface for audit records.
// Error Contract:
// - all methods return nil on success or wrapped errors on failure
type Store interface {
	Append(ctx context.Context, record *models.Record) error
	List(ctx context.Context, filter *models.RecordFilter) ([]*models.Record, error)
	Count(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Mirror publishes audit records to a Kafka topic for downstream compliance
// tooling. The database row is the source of truth; mirroring is best-effort.
type Mirror interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

type Option func(*Service)

const (
	mirrorTimeout = 5 * time.Second

	defaultVersionHash = "1.0"

	// Retention bounds mirror the operator settings range.
	minRetentionMonths = 1
	maxRetentionMonths = 120
)

// Service is the write path of the consent audit trail.
type Service struct {
	store       Store
	hasher      *hasher.Hasher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	countCache  *redis.CountCache
	mirror      Mirror
	mirrorTopic string
	tracer      trace.Tracer
	now         func() time.Time
}

func NewService(store Store, h *hasher.Hasher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		hasher: h,
		logger: logger,
		tracer: otel.Tracer("libreconsent/consentlog"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCountCache sets the export row-count cache. Nil-safe.
func WithCountCache(c *redis.CountCache) Option {
	return func(s *Service) {
		s.countCache = c
	}
}

// WithMirror enables best-effort Kafka mirroring of appended records.
func WithMirror(m Mirror, topic string) Option {
	return func(s *Service) {
		s.mirror = m
		s.mirrorTopic = topic
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Record validates a submission, derives the keyed consent hash, and appends
// one audit row. Unknown category names are dropped silently; a malformed
// consent identifier rejects the whole submission.
func (s *Service) Record(ctx context.Context, consentID string, categories []string, versionHash, source string) (*models.Record, error) {
	ctx, span := s.tracer.Start(ctx, "consentlog.Record")
	defer span.End()
	start := s.now()

	if s.hasher == nil {
		s.reject("missing_secret")
		return nil, dErrors.New(dErrors.CodeConfig, "consent hashing secret is not provisioned")
	}
	if !validation.IsConsentID(consentID) {
		s.reject("invalid_identifier")
		return nil, dErrors.New(dErrors.CodeInvalidIdentifier, "consent_id must be 64 lowercase hex characters")
	}
	if source == "" {
		source = models.SourceAccept
	}
	if versionHash == "" {
		versionHash = defaultVersionHash
	}
	if !models.ValidSource(source) {
		s.reject("invalid_source")
		return nil, dErrors.New(dErrors.CodeBadRequest, "source must be accept or change")
	}

	record := &models.Record{
		CreatedAt:   s.now().UTC(),
		ConsentHash: s.hasher.Hash(consentID),
		Categories:  category.Names(category.Filter(categories)),
		VersionHash: versionHash,
		Source:      source,
	}
	span.SetAttributes(
		attribute.String("consent.source", source),
		attribute.Int("consent.categories", len(record.Categories)),
	)

	if err := s.store.Append(ctx, record); err != nil {
		s.reject("storage")
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to persist consent record")
	}

	if s.metrics != nil {
		s.metrics.IncrementRecordsWritten(source)
		s.metrics.ObserveRecordLatency(s.now().Sub(start).Seconds())
	}
	s.countCache.Invalidate(ctx)
	s.mirrorRecord(record)

	return record, nil
}

// Export lists audit rows for the admin export together with the total row
// count. The count comes from the cache when warm; a miss reads the store and
// refills it.
func (s *Service) Export(ctx context.Context, filter *models.RecordFilter) (*models.ExportResult, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list consent records")
	}

	total, ok := s.countCache.Get(ctx)
	if !ok {
		total, err = s.store.Count(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to count consent records")
		}
		s.countCache.Set(ctx, total)
	}

	if records == nil {
		records = []*models.Record{}
	}
	return &models.ExportResult{Records: records, Total: total}, nil
}

// Sweep deletes audit rows older than the retention horizon and returns how
// many were removed. The predicate is pure age, so re-running is idempotent.
func (s *Service) Sweep(ctx context.Context, retentionMonths int) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "consentlog.Sweep")
	defer span.End()

	if retentionMonths < minRetentionMonths || retentionMonths > maxRetentionMonths {
		return 0, dErrors.New(dErrors.CodeBadRequest, "retention_months must be between 1 and 120")
	}

	cutoff := s.now().UTC().AddDate(0, -retentionMonths, 0)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorage, "failed to sweep consent records")
	}
	span.SetAttributes(attribute.Int64("consent.swept", deleted))

	if s.metrics != nil {
		s.metrics.IncrementSweepsRun()
		s.metrics.AddRecordsSwept(deleted)
	}
	if deleted > 0 {
		s.countCache.Invalidate(ctx)
		s.logger.Info("retention sweep removed expired consent records",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementRecordsRejected(reason)
	}
}

// mirrorRecord publishes the appended row to Kafka in the background. The
// caller never waits and failures only count and log.
func (s *Service) mirrorRecord(record *models.Record) {
	if s.mirror == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("failed to encode consent record for mirror", "error", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		err := s.mirror.Produce(ctx, &producer.Message{
			Topic: s.mirrorTopic,
			Key:   []byte(record.ConsentHash),
			Value: payload,
		})
		if err != nil {
			if s.metrics != nil {
				s.metrics.IncrementMirrorFailures()
			}
			s.logger.Warn("failed to mirror consent record", "error", err)
		}
	}()
}
