package errorclass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Kind is the category of a classified error.
type Kind string

const (
	KindNetwork      Kind = "NETWORK_ERROR"
	KindTimeout      Kind = "TIMEOUT_ERROR"
	KindServer       Kind = "SERVER_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindUnknown      Kind = "UNKNOWN_ERROR"
)

// ServerErrorStatus returns the kind used for an HTTP status without a dedicated kind.
func ServerErrorStatus(status int) Kind {
	return Kind("SERVER_ERROR_" + strconv.Itoa(status))
}

var messages = map[Kind]string{
	KindNetwork:      "network connection failed, check the network settings",
	KindTimeout:      "request timed out, please retry",
	KindServer:       "server error, please try again later",
	KindUnauthorized: "authentication failed, please sign in again",
	KindForbidden:    "access to the resource is forbidden",
	KindNotFound:     "the requested resource does not exist",
	KindUnknown:      "unknown error, please try again later",
}

// Message returns the user-facing message for the kind.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[KindUnknown]
}

// ClassifiedError is the result of classifying a raw error.
type ClassifiedError struct {
	Kind    Kind
	Message string
}

// StatusCoder is implemented by errors that carry an HTTP response status.
type StatusCoder interface {
	HTTPStatus() int
}

// ServerMessager is implemented by errors that carry a message reported by the server.
type ServerMessager interface {
	ServerMessage() string
}

// Classify maps err to a ClassifiedError.
// The mapping is deterministic and never panics; a nil or unrecognized error is UNKNOWN_ERROR.
func Classify(err error) (ce ClassifiedError) {
	defer func() {
		if r := recover(); r != nil {
			ce = ClassifiedError{Kind: KindUnknown, Message: KindUnknown.Message()}
		}
	}()

	kind, message := classify(err)
	if message == "" {
		message = kind.Message()
	}
	return ClassifiedError{Kind: kind, Message: message}
}

func classify(err error) (Kind, string) {
	if err == nil {
		return KindUnknown, ""
	}

	// a response status wins over any text, which may quote the response body
	var sc StatusCoder
	if errors.As(err, &sc) {
		return classifyStatus(sc.HTTPStatus(), err)
	}

	text := strings.ToLower(safeMessage(err))
	if strings.Contains(text, "network error") {
		return KindNetwork, ""
	}
	if isTimeout(err) || strings.Contains(text, "timeout") {
		return KindTimeout, ""
	}

	if isTransport(err) {
		return KindNetwork, ""
	}
	return KindUnknown, ""
}

func classifyStatus(status int, err error) (Kind, string) {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized, ""
	case http.StatusForbidden:
		return KindForbidden, ""
	case http.StatusNotFound:
		return KindNotFound, ""
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServer, ""
	default:
		var sm ServerMessager
		if errors.As(err, &sm) {
			return ServerErrorStatus(status), sm.ServerMessage()
		}
		return ServerErrorStatus(status), KindUnknown.Message()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isTransport reports whether the request failed before a response was received.
func isTransport(err error) bool {
	var (
		ue *url.Error
		oe *net.OpError
		ne net.Error
	)
	switch {
	case errors.As(err, &ue), errors.As(err, &oe), errors.As(err, &ne):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	default:
		return false
	}
}

// safeMessage returns err.Error(), tolerating implementations that panic on malformed values.
func safeMessage(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%T", err)
		}
	}()
	return err.Error()
}
