package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logRecorder runs requests through one RequestLog instance and counts the
// lines each request added.
type logRecorder struct {
	buf     bytes.Buffer
	e       *echo.Echo
	handler echo.HandlerFunc
}

func newLogRecorder(status func(path string) int) *logRecorder {
	r := &logRecorder{e: echo.New()}
	log := slog.New(slog.NewTextHandler(&r.buf, nil))
	r.handler = RequestLog(log)(func(c echo.Context) error {
		return c.NoContent(status(c.Request().URL.Path))
	})
	return r
}

func (r *logRecorder) do(t *testing.T, req *http.Request) (lines string, rec *httptest.ResponseRecorder, c echo.Context) {
	t.Helper()
	before := r.buf.Len()
	rec = httptest.NewRecorder()
	c = r.e.NewContext(req, rec)
	require.NoError(t, r.handler(c))
	return r.buf.String()[before:], rec, c
}

func TestRequestLog_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		reqID   string
		want    []string
		notWant []string
	}{
		{
			name:   "feed request",
			method: http.MethodGet,
			path:   "/feed.xml",
			status: http.StatusOK,
			want: []string{
				"level=INFO", "method=GET", "path=/feed.xml", "status=200",
				"bytes=0", "duration_ms=", "request_id=",
			},
		},
		{
			name:   "manual refresh",
			method: http.MethodPost,
			path:   "/api/v1/feed/refresh",
			status: http.StatusOK,
			want:   []string{"method=POST", "path=/api/v1/feed/refresh"},
		},
		{
			name:    "build failure is a warning",
			method:  http.MethodGet,
			path:    "/feed-cz.xml",
			status:  http.StatusInternalServerError,
			want:    []string{"level=WARN", "status=500"},
			notWant: []string{"level=INFO"},
		},
		{
			name:   "client error is a warning",
			method: http.MethodGet,
			path:   "/nope",
			status: http.StatusNotFound,
			want:   []string{"level=WARN", "status=404"},
		},
		{
			name:   "caller supplied request id",
			method: http.MethodGet,
			path:   "/feed.xml",
			status: http.StatusOK,
			reqID:  "feed-req-7",
			want:   []string{"request_id=feed-req-7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newLogRecorder(func(string) int { return tt.status })
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.reqID != "" {
				req.Header.Set(requestIDHeader, tt.reqID)
			}

			lines, rec, c := r.do(t, req)

			for _, w := range tt.want {
				assert.Contains(t, lines, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, lines, w)
			}

			id := rec.Header().Get(requestIDHeader)
			require.NotEmpty(t, id)
			assert.Equal(t, id, c.Get(requestIDKey))
			if tt.reqID != "" {
				assert.Equal(t, tt.reqID, id)
			}
		})
	}
}

func TestRequestLog_ProbeSuppression(t *testing.T) {
	t.Parallel()

	type step struct {
		path   string
		status int
		logged bool
	}

	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "repeated healthz success logged once",
			steps: []step{
				{"/healthz", http.StatusOK, true},
				{"/healthz", http.StatusOK, false},
				{"/healthz", http.StatusOK, false},
			},
		},
		{
			name: "readyz failures always logged",
			steps: []step{
				{"/readyz", http.StatusServiceUnavailable, true},
				{"/readyz", http.StatusServiceUnavailable, true},
			},
		},
		{
			name: "failure after suppressed successes",
			steps: []step{
				{"/readyz", http.StatusOK, true},
				{"/readyz", http.StatusOK, false},
				{"/readyz", http.StatusServiceUnavailable, true},
			},
		},
		{
			name: "probes tracked separately",
			steps: []step{
				{"/healthz", http.StatusOK, true},
				{"/readyz", http.StatusOK, true},
				{"/healthz", http.StatusOK, false},
			},
		},
		{
			name: "feed always logged",
			steps: []step{
				{"/feed.xml", http.StatusOK, true},
				{"/feed.xml", http.StatusOK, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			i := 0
			r := newLogRecorder(func(string) int { return tt.steps[i].status })

			for ; i < len(tt.steps); i++ {
				s := tt.steps[i]
				lines, _, _ := r.do(t, httptest.NewRequest(http.MethodGet, s.path, http.NoBody))
				if s.logged {
					assert.Contains(t, lines, "path="+s.path, "step %d", i)
					if s.status >= http.StatusBadRequest {
						assert.True(t, strings.Contains(lines, "level=WARN"), "step %d", i)
					}
				} else {
					assert.Empty(t, lines, "step %d", i)
				}
			}
		})
	}
}
