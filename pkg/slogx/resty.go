package slogx

import (
	"log/slog"

	"github.com/alekostrader/alkadmin/pkg/idx"
	"github.com/go-resty/resty/v2"
)

// RequestIDHeader carries the client-generated request ID.
const RequestIDHeader = "X-Request-ID"

// AttachResty tags every request sent through c with an X-Request-ID and logs
// its outcome. The logger in the request context wins over base. Headers are
// never logged, so bearer tokens stay out of the logs.
func AttachResty(c *resty.Client, base *slog.Logger) {
	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(RequestIDHeader) == "" {
			r.SetHeader(RequestIDHeader, idx.New().String())
		}
		return nil
	})

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		r := resp.Request
		level := slog.LevelInfo
		if resp.IsError() {
			level = slog.LevelWarn
		}

		loggerFor(r, base).Log(r.Context(), level, "http_request",
			"req_id", r.Header.Get(RequestIDHeader),
			"method", r.Method,
			"path", requestPath(r),
			"status", resp.StatusCode(),
			"duration_ms", resp.Time().Milliseconds(),
		)
		return nil
	})

	c.OnError(func(r *resty.Request, err error) {
		loggerFor(r, base).Error("http_request_failed",
			"req_id", r.Header.Get(RequestIDHeader),
			"method", r.Method,
			"path", requestPath(r),
			"error", err,
		)
	})
}

func loggerFor(r *resty.Request, base *slog.Logger) *slog.Logger {
	if l, ok := r.Context().Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	if base != nil {
		return base
	}
	return slog.Default()
}

func requestPath(r *resty.Request) string {
	if r.RawRequest != nil && r.RawRequest.URL != nil {
		return r.RawRequest.URL.Path
	}
	return r.URL
}
