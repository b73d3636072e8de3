package httpsource

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header that carries the per-request id.
const RequestIDHeader = "X-Request-ID"

// headerRoundTripper sets the user agent and a fresh request id on every request.
type headerRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	if rt.UserAgent != "" {
		clone.Header.Set("User-Agent", rt.UserAgent)
	}
	if clone.Header.Get(RequestIDHeader) == "" {
		clone.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return rt.Wrapped.RoundTrip(clone)
}
