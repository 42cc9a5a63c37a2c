// Package handler exposes the consent audit pipeline over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"libreconsent/internal/banner"
	"libreconsent/internal/consentlog/models"
	"libreconsent/internal/platform/metrics"
	"libreconsent/internal/platform/middleware"
	"libreconsent/internal/transport/http/respond"
	dErrors "libreconsent/pkg/domain-errors"
	s "libreconsent/pkg/string"
	"libreconsent/pkg/validation"
)

// exportLimitCap bounds one export page regardless of the requested limit.
const exportLimitCap = 1000

// Service defines the interface for consent audit operations.
type Service interface {
	Record(ctx context.Context, consentID string, categories []string, versionHash, source string) (*models.Record, error)
	Export(ctx context.Context, filter *models.RecordFilter) (*models.ExportResult, error)
	Sweep(ctx context.Context, retentionMonths int) (int64, error)
}

// Handler handles the consent endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	clientConfig banner.ClientConfig
}

// New creates a new consent Handler.
func New(service Service, clientConfig banner.ClientConfig, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		clientConfig: clientConfig,
	}
}

// Register registers the consent routes with the chi router. The admin
// middleware guards the export and the purge; the submission endpoint stays
// anonymous.
func (h *Handler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/consent", h.handleSubmit)
	r.Get("/consent/config", h.handleConfig)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/consent/export", h.handleExport)
		r.Post("/consent/purge", h.handlePurge)
	})
}

// handleSubmit stores one anonymous consent submission. The response never
// echoes the record: success is all the client learns.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.ObserveEndpointLatency("consent_submit", time.Since(start).Seconds())
		}
	}()

	requestID := middleware.GetRequestID(ctx)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode consent submission",
			"request_id", requestID,
			"error", err,
		)
		respond.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	s.TrimStrings(&req.ConsentID, &req.VersionHash, &req.Source)
	s.TrimSlice(req.Categories)
	if err := validation.Validate(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent submission",
			"request_id", requestID,
			"error", err,
		)
		respond.WriteError(w, err)
		return
	}

	if _, err := h.service.Record(ctx, req.ConsentID, req.Categories, req.VersionHash, req.Source); err != nil {
		h.logger.ErrorContext(ctx, "failed to record consent submission",
			"request_id", requestID,
			"error", err,
		)
		respond.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, SubmitResponse{Success: true})
}

// handleConfig serves the injected client configuration object for pages that
// fetch it instead of inlining it.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.clientConfig)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	filter, err := exportFilter(r)
	if err != nil {
		respond.WriteError(w, err)
		return
	}

	result, err := h.service.Export(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to export consent records",
			"request_id", requestID,
			"error", err,
		)
		respond.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req PurgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		respond.WriteError(w, err)
		return
	}

	deleted, err := h.service.Sweep(ctx, req.RetentionMonths)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to purge consent records",
			"request_id", requestID,
			"error", err,
		)
		respond.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "administrative consent purge completed",
		"request_id", requestID,
		"deleted", deleted,
		"retention_months", req.RetentionMonths,
	)
	respond.WriteJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}

func exportFilter(r *http.Request) (*models.RecordFilter, error) {
	filter := &models.RecordFilter{Limit: exportLimitCap}

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "since must be an RFC3339 timestamp")
		}
		filter.Since = &since
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
		}
		if limit > exportLimitCap {
			limit = exportLimitCap
		}
		filter.Limit = limit
	}
	return filter, nil
}
