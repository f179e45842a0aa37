package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureID(t *testing.T, headerID string) (ctxID, respID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
	if headerID != "" {
		req.Header.Set(RequestIDHeader, headerID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return ctxID, rec.Header().Get(RequestIDHeader)
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()

	ctxID, respID := captureID(t, "")
	require.NotEmpty(t, ctxID)
	assert.Equal(t, ctxID, respID)
}

func TestRequestID_Incoming(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headerID string
		keep     bool
	}{
		{name: "valid id", headerID: "hive-evt-123", keep: true},
		{name: "space", headerID: "has space", keep: false},
		{name: "newline", headerID: "line\nbreak", keep: false},
		{name: "non-ascii", headerID: "id-é", keep: false},
		{name: "too long", headerID: strings.Repeat("a", maxRequestIDLen+1), keep: false},
		{name: "max length", headerID: strings.Repeat("a", maxRequestIDLen), keep: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctxID, respID := captureID(t, tc.headerID)
			assert.Equal(t, ctxID, respID)
			if tc.keep {
				assert.Equal(t, tc.headerID, ctxID)
			} else {
				assert.NotEqual(t, tc.headerID, ctxID)
				assert.Len(t, ctxID, 36, "replaced by a uuid")
			}
		})
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	t.Parallel()
	assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("glue unavailable"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/v1/events", line["path"])
	assert.InDelta(t, 502, line["status"], 0)
	assert.InDelta(t, len("glue unavailable"), line["bytes"], 0)
	assert.Equal(t, "req-7", line["request_id"])
}
