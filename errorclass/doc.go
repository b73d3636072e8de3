// Package errorclass maps raw fetch failures to a small set of categories and writes
// structured log records for them.
//
// Classification inspects the error chain for transport-level signals (network failures,
// timeouts) and for an HTTP status code exposed through an HTTPStatus method. Anything that
// cannot be recognized is classified as UNKNOWN_ERROR.
package errorclass
