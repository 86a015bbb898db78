package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// captureLogger returns a JSON logger writing into buf.
func captureLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.InfoLevel))
}

func logEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v, log: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/api/stocks/AAPL/series", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	entry := logEntry(t, &buf)
	if entry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", entry["method"])
	}
	if entry["path"] != "/api/stocks/AAPL/series" {
		t.Errorf("unexpected path %v", entry["path"])
	}
	if entry["status"].(float64) != http.StatusNotFound {
		t.Errorf("expected status 404, got %v", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms in log entry")
	}
}

func TestLoggingMiddleware_StatusFromImplicitWrite(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/health", nil))

	if got := logEntry(t, &buf)["status"].(float64); got != http.StatusOK {
		t.Errorf("expected the first status 200 to be logged, got %v", got)
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "req-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest("GET", "/api/sessions", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			id := w.Header().Get("X-Request-ID")
			if id == "" {
				t.Fatal("expected X-Request-ID header")
			}
			if tt.incoming != "" && id != tt.incoming {
				t.Errorf("expected request id %s, got %s", tt.incoming, id)
			}
			if got := logEntry(t, &buf)["request_id"]; got != id {
				t.Errorf("expected logged request_id %s, got %v", id, got)
			}
		})
	}
}

func TestLoggingMiddleware_ClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"remote addr", "", "10.0.0.1:54321"},
		{"single proxy", "203.0.113.50", "203.0.113.50"},
		{"proxy chain", "203.0.113.50, 70.41.3.18", "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest("GET", "/api/health", nil)
			req.RemoteAddr = "10.0.0.1:54321"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got := logEntry(t, &buf)["client_ip"]; got != tt.want {
				t.Errorf("expected client_ip %s, got %v", tt.want, got)
			}
		})
	}
}

// flushCounter counts flushes that reach the connection.
type flushCounter struct {
	*httptest.ResponseRecorder
	flushes int
}

func (f *flushCounter) Flush() {
	f.flushes++
	f.ResponseRecorder.Flush()
}

func TestMiddlewareStack_FlushReachesConnection(t *testing.T) {
	reg := NewRegistry()

	var flushable bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f, ok := w.(http.Flusher)
		flushable = ok
		if !ok {
			return
		}
		for i := 0; i < 3; i++ {
			w.Write([]byte("event: progress\ndata: {}\n\n"))
			f.Flush()
		}
	})
	stack := LoggingMiddleware(zap.NewNop())(HTTPMiddleware(reg)(inner))

	w := &flushCounter{ResponseRecorder: httptest.NewRecorder()}
	stack.ServeHTTP(w, httptest.NewRequest("POST", "/api/stocks/AAPL/advice", nil))

	if !flushable {
		t.Fatal("expected the wrapped writer to implement http.Flusher")
	}
	if w.flushes != 3 {
		t.Errorf("expected 3 flushes on the underlying writer, got %d", w.flushes)
	}
}
