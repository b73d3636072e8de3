// Package httpsource provides a snapshotcache.Fetcher that retrieves a JSON snapshot with an HTTP GET request.
//
// Every request carries a fresh X-Request-ID header and, when configured, a user agent and an OAuth2 bearer token.
// A non-2xx response is returned as *HTTPError, which exposes the status code and the server message
// to the errorclass package.
package httpsource
