package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"snapshot served", http.StatusOK, `{"kpis":{}}`, "info"},
		{"implicit ok", 0, "ok", "info"},
		{"bad view", http.StatusBadRequest, `{"error":"invalid view"}`, "warn"},
		{"store failure", http.StatusInternalServerError, `{"error":"failed"}`, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := chimiddleware.RequestID(Logger(zerolog.New(&buf))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if tt.status != 0 {
						w.WriteHeader(tt.status)
					}
					w.Write([]byte(tt.body))
				}),
			))

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard?view=daily", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log entry: %v", err)
			}

			wantStatus := tt.status
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(wantStatus) {
				t.Errorf("status = %v, want %d", entry["status"], wantStatus)
			}
			if entry["path"] != "/api/dashboard" {
				t.Errorf("path = %v, want /api/dashboard", entry["path"])
			}
			if entry["bytes"] != float64(len(tt.body)) {
				t.Errorf("bytes = %v, want %d", entry["bytes"], len(tt.body))
			}
			if id, _ := entry["request_id"].(string); id == "" {
				t.Error("expected request_id from the RequestID middleware")
			}
			if entry["message"] != "request completed" {
				t.Errorf("message = %v", entry["message"])
			}
		})
	}
}
