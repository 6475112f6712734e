package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
	CodeParseError   = "PARSE_ERROR"
)

const (
	msgNoResponse = "No response received from server"
	msgUnexpected = "An unexpected error occurred"
	msgUnknown    = "An unknown error occurred"
)

// APIError is the only error type returned by Client. StatusCode is 0 when no
// response was received.
type APIError struct {
	Message    string              `json:"message"`
	StatusCode int                 `json:"statusCode"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Code       string              `json:"code,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsNetwork reports whether the request never got a response.
func (e *APIError) IsNetwork() bool {
	return e.StatusCode == 0 && e.Code == CodeNetworkError
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Normalize converts any error into an *APIError. Errors that are not already
// API errors become UNKNOWN_ERROR with status 500.
func Normalize(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr
	}
	msg := err.Error()
	if msg == "" {
		msg = msgUnexpected
	}
	return &APIError{
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeUnknownError,
		cause:      err,
	}
}

func networkError(err error) *APIError {
	return &APIError{
		Message:    msgNoResponse,
		StatusCode: 0,
		Code:       CodeNetworkError,
		cause:      err,
	}
}

func parseError(status int, err error) *APIError {
	return &APIError{
		Message:    fmt.Sprintf("decode response: %v", err),
		StatusCode: status,
		Code:       CodeParseError,
		cause:      err,
	}
}

// errorBody is the set of fields read from a failed response. Servers differ
// in whether "error" is a string or an object, so it is decoded lazily.
type errorBody struct {
	Message string              `json:"message"`
	Error   json.RawMessage     `json:"error"`
	Errors  map[string][]string `json:"errors"`
	Code    string              `json:"code"`
}

// fromResponse builds an APIError from a non-2xx response. The message is
// taken from the body's "message", then "error", then synthesized.
func fromResponse(resp *Response) *APIError {
	apiErr := &APIError{
		Message:    fmt.Sprintf("HTTP %d Error", resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	var body errorBody
	if len(resp.Body) == 0 || json.Unmarshal(resp.Body, &body) != nil {
		return apiErr
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case len(body.Error) > 0:
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			apiErr.Message = s
		}
	}
	apiErr.Errors = body.Errors
	apiErr.Code = body.Code
	return apiErr
}

// ExtractMessages returns the top-level message followed by every field
// error.
func ExtractMessages(err *APIError) []string {
	if err == nil {
		return []string{msgUnknown}
	}
	var messages []string
	if err.Message != "" {
		messages = append(messages, err.Message)
	}
	for _, field := range sortedKeys(err.Errors) {
		messages = append(messages, err.Errors[field]...)
	}
	if len(messages) == 0 {
		return []string{msgUnknown}
	}
	return messages
}

// FormatForDisplay joins ExtractMessages into one sentence-separated string.
func FormatForDisplay(err *APIError) string {
	return strings.Join(ExtractMessages(err), ". ")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
