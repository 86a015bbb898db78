package metrics

import (
	"net/http"
	"time"
)

// unmatchedRoute labels requests no route pattern claimed.
const unmatchedRoute = "unmatched"

// statusRecorder keeps the first status written and stays flushable for SSE.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wrote {
		s.status, s.wrote = code, true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wrote {
		s.status, s.wrote = http.StatusOK, true
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// HTTPMiddleware records request count, latency and in-flight requests.
// Requests are labelled by the ServeMux pattern that served them, so
// /api/stocks/AAPL/series and /api/stocks/MSFT/series share one series.
// Wrap the mux directly; the pattern is read back from the request after
// the mux has routed it.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			reg.RecordRequest(r.Method, route, rec.status, time.Since(start).Seconds())
		})
	}
}
