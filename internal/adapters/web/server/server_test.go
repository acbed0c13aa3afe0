package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MrOplus/NetGuard/internal/adapters/web/server"
	"github.com/MrOplus/NetGuard/internal/core/domain"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// setupServer helper creates a router backed by mocks
func setupServer(t *testing.T, token string) (http.Handler, *MockQueryService, *MockControlService) {
	t.Helper()
	query := new(MockQueryService)
	control := new(MockControlService)

	srv, err := server.NewServer(":0", query, control, server.Options{Token: token, Version: "test"})
	require.NoError(t, err)
	t.Cleanup(srv.Limiter.Stop)

	return server.SetupRoutes(srv), query, control
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestServer_Health(t *testing.T) {
	h, _, _ := setupServer(t, "s3cret")

	rec, env := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestServer_RequiresToken(t *testing.T) {
	h, query, _ := setupServer(t, "s3cret")
	query.On("Traffic", mock.Anything).Return(domain.TrafficStats{Download: 10})

	rec, env := do(t, h, http.MethodGet, "/api/traffic", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, http.MethodGet, "/api/traffic", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"download":10`)
}

func TestServer_HandleConnections(t *testing.T) {
	h, query, _ := setupServer(t, "")

	conns := []domain.Connection{{ID: "10.0.0.2:50000-1.1.1.1:443", ProcessName: "curl"}}
	query.On("Connections", mock.Anything, mock.MatchedBy(func(b *bool) bool { return b != nil && *b })).Return(conns, nil).Once()
	query.On("Connections", mock.Anything, (*bool)(nil)).Return([]domain.Connection(nil), nil).Once()

	rec, env := do(t, h, http.MethodGet, "/api/connections?hideLocal=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Connection
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got, 1)

	rec, env = do(t, h, http.MethodGet, "/api/connections", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(env.Data))

	rec, _ = do(t, h, http.MethodGet, "/api/connections?hideLocal=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	query.AssertExpectations(t)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h, _, _ := setupServer(t, "")

	rec, env := do(t, h, http.MethodPost, "/api/traffic", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, env.Success)
}

func TestServer_MarkAlertRead(t *testing.T) {
	h, query, _ := setupServer(t, "")

	tests := []struct {
		name       string
		body       any
		mockSetup  func()
		wantStatus int
	}{
		{
			name:       "found",
			body:       map[string]any{"id": 7},
			mockSetup:  func() { query.On("MarkAlertRead", mock.Anything, int64(7)).Return(nil).Once() },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing",
			body:       map[string]any{"id": 99},
			mockSetup:  func() { query.On("MarkAlertRead", mock.Anything, int64(99)).Return(domain.ErrNotFound).Once() },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed",
			body:       "not an object",
			mockSetup:  func() {},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			rec, _ := do(t, h, http.MethodPost, "/api/alerts/read", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
	query.AssertExpectations(t)
}

func TestServer_AppUsageRange(t *testing.T) {
	h, query, _ := setupServer(t, "")
	query.On("AppUsage", mock.Anything, domain.RangeWeek).Return([]domain.AppUsage{{ProcessName: "firefox"}}, nil)
	query.On("AppUsage", mock.Anything, domain.RangeToday).Return([]domain.AppUsage(nil), nil)

	rec, env := do(t, h, http.MethodGet, "/api/app-usage?range=week", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "firefox")

	// unknown ranges fall back to today
	rec, env = do(t, h, http.MethodGet, "/api/app-usage?range=decade", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestServer_UsageReportIsPDF(t *testing.T) {
	h, query, _ := setupServer(t, "")
	query.On("UsageReport", mock.Anything, domain.RangeMonth).Return([]byte("%PDF-1.3 ..."), nil)

	rec, _ := do(t, h, http.MethodGet, "/api/app-usage/report?range=month", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=netguard_app_usage_month_")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestServer_History(t *testing.T) {
	h, query, _ := setupServer(t, "")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	query.On("History", mock.Anything, start, end).Return(domain.History{
		Connections: []domain.ConnectionLogEntry{},
		Traffic:     []domain.TrafficPoint{{Download: 5}},
	}, nil)

	rec, env := do(t, h, http.MethodGet, "/api/history?start=2026-03-01T00:00:00Z&end=2026-03-02T00:00:00Z", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"traffic":[`)

	rec, _ = do(t, h, http.MethodGet, "/api/history?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UpdateSettings(t *testing.T) {
	h, query, _ := setupServer(t, "")
	updated := domain.DefaultSettings()
	updated.AskToConnect = true
	query.On("UpdateSettings", mock.Anything, map[string]any{"askToConnect": true}).Return(updated, nil)
	query.On("UpdateSettings", mock.Anything, map[string]any{"retentionDays": "many"}).
		Return(domain.Settings{}, domain.ErrInvalidSetting)

	rec, env := do(t, h, http.MethodPost, "/api/settings", map[string]any{"askToConnect": true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"askToConnect":true`)

	rec, _ = do(t, h, http.MethodPost, "/api/settings", map[string]any{"retentionDays": "many"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_FirewallUnavailable(t *testing.T) {
	h, _, control := setupServer(t, "")
	control.On("BlockApp", mock.Anything, "/usr/bin/curl").Return(domain.ErrPrivilegedUnavailable)
	control.On("Rules", mock.Anything).Return([]domain.FirewallRule{{Name: "NetGuard Block - curl (Out)"}}, nil)

	rec, env := do(t, h, http.MethodPost, "/api/firewall/block", map[string]string{"path": "/usr/bin/curl"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, http.MethodGet, "/api/firewall/rules", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "NetGuard Block - curl (Out)")
}

func TestServer_EmptyAppPathIsBadRequest(t *testing.T) {
	h, _, control := setupServer(t, "")
	control.On("AllowApp", mock.Anything, "").Return(fmt.Errorf("allow application: %w", domain.ErrInvalidPath))

	rec, env := do(t, h, http.MethodPost, "/api/firewall/allow", map[string]string{"path": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "application path required")
}

func TestServer_PrivilegedFailureIsBadGateway(t *testing.T) {
	h, _, control := setupServer(t, "")
	perr := &domain.PrivilegedError{Op: "kill", Message: "access denied"}
	control.On("KillConnection", mock.Anything, "10.0.0.2:1-1.1.1.1:443").Return(perr)

	rec, env := do(t, h, http.MethodPost, "/api/connections/kill", map[string]string{"id": "10.0.0.2:1-1.1.1.1:443"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotEmpty(t, env.Error)
}

func TestServer_RespondPending(t *testing.T) {
	h, _, control := setupServer(t, "")
	v := domain.Verdict{ID: "abc", Allow: false, Remember: true}
	control.On("Respond", mock.Anything, v).Return(nil)

	rec, env := do(t, h, http.MethodPost, "/api/pending-connections/respond", v)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	control.AssertExpectations(t)
}

func TestServer_InternalErrorEnvelope(t *testing.T) {
	h, query, _ := setupServer(t, "")
	query.On("DBStats", mock.Anything).Return(domain.DBStats{}, errors.New("disk gone"))

	rec, env := do(t, h, http.MethodGet, "/api/debug/db-stats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk gone", env.Error)
}
