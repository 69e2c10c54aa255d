package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// RequestID stamps every outgoing request with a fresh X-Request-ID unless
// the caller already set one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) == "" {
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return next.RoundTrip(req)
	})
}

// RequestLogger logs one line per outgoing request with its outcome.
func RequestLogger(next http.RoundTripper, logger *logrus.Logger) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		startTime := time.Now()

		entry := logger.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		})
		if reqID := req.Header.Get(RequestIDHeader); reqID != "" {
			entry = entry.WithField("request_id", reqID)
		}
		entry.Debug("Outgoing request")

		resp, err := next.RoundTrip(req)
		entry = entry.WithField("latency_ms", time.Since(startTime).Milliseconds())
		if err != nil {
			entry.Warnf("Request failed without response: %v", err)
			return nil, err
		}

		entry = entry.WithField("status_code", resp.StatusCode)
		switch {
		case resp.StatusCode >= 500:
			entry.Error("Request completed with server error")
		case resp.StatusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Debug("Request completed successfully")
		}
		return resp, nil
	})
}

// Chain wraps base with request id stamping and logging, in that order.
func Chain(base http.RoundTripper, logger *logrus.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return RequestID(RequestLogger(base, logger))
}
