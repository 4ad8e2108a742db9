package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a transport failure.
type Kind int

const (
	KindServer Kind = iota
	KindClient
	KindSessionExpired
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client_error"
	case KindSessionExpired:
		return "session_expired"
	case KindNetwork:
		return "network_error"
	default:
		return "server_error"
	}
}

const (
	MsgSessionExpired = "session expired"
	MsgNetwork        = "network error"
)

var (
	// ErrSessionExpired matches any *Error of KindSessionExpired via errors.Is.
	ErrSessionExpired = errors.New(MsgSessionExpired)
	// ErrNetwork matches any *Error of KindNetwork via errors.Is.
	ErrNetwork = errors.New(MsgNetwork)
)

// statusMessages is the fallback used when the error body carries no message.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "invalid data",
	http.StatusUnauthorized:        "invalid credentials",
	http.StatusForbidden:           "access denied",
	http.StatusNotFound:            "not found",
	http.StatusConflict:            "conflict",
	http.StatusInternalServerError: "internal server error",
}

// Error is the single error type returned by Client.
type Error struct {
	Status     int
	StatusText string
	Kind       Kind
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on the sentinel errors without inspecting Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return e.Kind == KindSessionExpired
	case ErrNetwork:
		return e.Kind == KindNetwork
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// KindOf returns the Kind carried by err. ok is false when err is not an *Error.
func KindOf(err error) (kind Kind, ok bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

type errorBody struct {
	Message *string `json:"message"`
}

// classify builds the error for a non-2xx response. The server's JSON
// "message" wins; otherwise the status table, otherwise a generic message.
func classify(status int, statusText string, body []byte) *Error {
	return &Error{
		Status:     status,
		StatusText: statusText,
		Kind:       statusKind(status),
		Message:    errorMessage(status, statusText, body),
	}
}

// statusKind follows the status table: the mapped 4xx codes are client errors,
// every other status (unmapped 4xx included) is a server error.
func statusKind(status int) Kind {
	if _, ok := statusMessages[status]; ok && status < 500 {
		return KindClient
	}
	return KindServer
}

func errorMessage(status int, statusText string, body []byte) string {
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil && eb.Message != nil && *eb.Message != "" {
		return *eb.Message
	}
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if statusText == "" {
		statusText = strings.TrimSpace(fmt.Sprintf("%d %s", status, http.StatusText(status)))
	}
	return fmt.Sprintf("request failed: %s", statusText)
}

func sessionExpiredError(status int, statusText string) *Error {
	return &Error{
		Status:     status,
		StatusText: statusText,
		Kind:       KindSessionExpired,
		Message:    MsgSessionExpired,
	}
}

func networkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: MsgNetwork,
		Err:     err,
	}
}
