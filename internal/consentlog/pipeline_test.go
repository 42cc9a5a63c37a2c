package consentlog_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreconsent/internal/banner"
	"libreconsent/internal/consentlog/handler"
	"libreconsent/internal/consentlog/hasher"
	"libreconsent/internal/consentlog/models"
	"libreconsent/internal/consentlog/service"
	"libreconsent/internal/consentlog/store"
)

// End-to-end over the real service and handler with in-memory storage:
// submit, then export, and check what the audit trail actually holds.
func TestSubmitThenExport(t *testing.T) {
	h, err := hasher.New("e2e-secret")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(store.New(), h, logger)

	r := chi.NewRouter()
	handler.New(svc, banner.ClientConfig{Endpoint: "/consent"}, logger, nil).
		Register(r, func(next http.Handler) http.Handler { return next })

	consentID := strings.Repeat("f", 64)
	body, err := json.Marshal(map[string]any{
		"consent_id": consentID,
		"categories": []string{"analytics", "marketing"},
		"source":     "accept",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/consent", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/consent/export", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result models.ExportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Records, 1)
	assert.Equal(t, int64(1), result.Total)

	record := result.Records[0]
	assert.Regexp(t, "^[a-f0-9]{64}$", record.ConsentHash)
	assert.NotEqual(t, consentID, record.ConsentHash)
	assert.Equal(t, []string{"analytics", "marketing"}, record.Categories)
	assert.Equal(t, "1.0", record.VersionHash)
	assert.Equal(t, models.SourceAccept, record.Source)
}
