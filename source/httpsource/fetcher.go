package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// maxBodySize bounds the response body that is read into memory.
const maxBodySize = 8 << 20

// Fetcher retrieves a snapshot from a JSON endpoint.
type Fetcher[V snapshotcache.ValueConstraint] struct {
	url    string
	client *http.Client
}

var _ snapshotcache.Fetcher[stubValue] = (*Fetcher[stubValue])(nil)

// New creates a fetcher for the endpoint at url.
func New[V snapshotcache.ValueConstraint](url string, opts ...Option) *Fetcher[V] {
	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}

	base := options.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var transport http.RoundTripper = &headerRoundTripper{
		Wrapped:   base,
		UserAgent: options.userAgent,
	}
	if options.tokenSource != nil {
		transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, options.tokenSource),
			Base:   transport,
		}
	}

	client := *options.client
	client.Transport = transport
	client.Timeout = options.timeout
	return &Fetcher[V]{url: url, client: &client}
}

// Fetch performs the GET request and decodes the JSON body.
func (f *Fetcher[V]) Fetch(ctx context.Context) (V, error) {
	var value V

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return value, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return value, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return value, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return value, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, &value); err != nil {
		return value, fmt.Errorf("failed to decode response: %w", err)
	}
	return value, nil
}

type stubValue struct{}

func (stubValue) ExpiresAt() (t time.Time) { return }
