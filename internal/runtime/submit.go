package runtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Source tags which transition produced a submission.
type Source string

const (
	SourceAccept Source = "accept"
	SourceChange Source = "change"
)

// Submission is the payload delivered to the consent audit endpoint.
type Submission struct {
	ConsentID   string   `json:"consent_id"`
	Categories  []string `json:"categories"`
	VersionHash string   `json:"version_hash"`
	Source      Source   `json:"source"`
}

// Submitter delivers a submission to the audit endpoint.
type Submitter interface {
	Submit(ctx context.Context, s Submission) error
}

// NewConsentID generates a fresh 64-hex browser consent identity. The value
// never reaches storage raw; the server hashes it with a keyed transform
// before persisting.
func NewConsentID() string {
	buf := make([]byte, 32)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

const submitTimeout = 10 * time.Second

// submitQueue delivers submissions fire-and-forget: consent UX must never
// block or error on telemetry. Delivery is at-most-once — failures are
// logged, never retried, and a full buffer drops the submission.
type submitQueue struct {
	submitter Submitter
	logger    *slog.Logger
	ch        chan Submission
	wg        sync.WaitGroup
}

func newSubmitQueue(submitter Submitter, logger *slog.Logger) *submitQueue {
	q := &submitQueue{
		submitter: submitter,
		logger:    logger,
		ch:        make(chan Submission, 4),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *submitQueue) run() {
	defer q.wg.Done()
	for s := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		if err := q.submitter.Submit(ctx, s); err != nil {
			q.logger.Error("consent submission failed",
				"source", s.Source,
				"error", err,
			)
		}
		cancel()
	}
}

// enqueue hands off a submission without blocking the caller.
func (q *submitQueue) enqueue(s Submission) {
	select {
	case q.ch <- s:
	default:
		q.logger.Warn("consent submission dropped, queue full",
			"source", s.Source,
		)
	}
}

// close drains pending submissions and stops the worker.
func (q *submitQueue) close() {
	close(q.ch)
	q.wg.Wait()
}
