package httpsource

import (
	"fmt"

	"github.com/goccy/go-json"
)

// HTTPError is returned for unexpected status codes. It captures the response body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// HTTPStatus returns the status code of the response.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

// ServerMessage returns the message field of a JSON error body, or an empty string.
func (e *HTTPError) ServerMessage() string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Message
}
