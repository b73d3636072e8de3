package httpsource

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout is the default timeout of a single request.
const DefaultTimeout = 10 * time.Second

// Option is the interface for the options of the HTTP fetcher.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithHTTPClient sets the base HTTP client. Its transport is wrapped, the client itself is not modified.
func WithHTTPClient(client *http.Client) Option {
	return optionFunc(func(o *options) {
		o.client = client
	})
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(userAgent string) Option {
	return optionFunc(func(o *options) {
		o.userAgent = userAgent
	})
}

// WithTokenSource authenticates every request with a bearer token from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return optionFunc(func(o *options) {
		o.tokenSource = ts
	})
}

// WithBearerToken authenticates every request with a static bearer token.
// An empty token disables authentication.
func WithBearerToken(token string) Option {
	return optionFunc(func(o *options) {
		if token == "" {
			o.tokenSource = nil
			return
		}
		o.tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	})
}

// WithTimeout sets the timeout of a single request. The default timeout is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.timeout = d
	})
}

type options struct {
	client      *http.Client
	userAgent   string
	tokenSource oauth2.TokenSource
	timeout     time.Duration
}

func defaultOptions() options {
	return options{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
}
