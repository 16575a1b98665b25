package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestServer_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		healthy    bool
		path       string
		wantStatus int
	}{
		{name: "health_ok", healthy: true, path: "/health", wantStatus: http.StatusOK},
		{name: "health_degraded", healthy: false, path: "/health", wantStatus: http.StatusServiceUnavailable},
		{name: "ready_ok", healthy: true, path: "/ready", wantStatus: http.StatusOK},
		{name: "ready_not", healthy: false, path: "/ready", wantStatus: http.StatusServiceUnavailable},
		{name: "live_ignores_checks", healthy: false, path: "/live", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "test", &mockLogger{})
			s.RegisterCheck("ledger", func(context.Context) Check {
				return Check{Healthy: tt.healthy, Message: "connected"}
			})

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestServer_HealthBody(t *testing.T) {
	s := NewServer(0, "v1.2.3", &mockLogger{})
	s.RegisterCheck("ledger", func(context.Context) Check {
		return Check{Healthy: true, Message: "connected", Details: map[string]string{"endpoint": "ws://a"}}
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Version != "v1.2.3" || status.Status != "ok" {
		t.Fatalf("unexpected status %+v", status)
	}
	if !status.Checks["ledger"].Healthy {
		t.Fatal("expected ledger check to be healthy")
	}
}
