package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RemoteError is a failed exchange with the service. StatusCode is zero when
// no response was received at all.
type RemoteError struct {
	// Method and URL identify the request.
	Method string
	URL    string

	// StatusCode is the HTTP status of the response, if any.
	StatusCode int

	// Message is the server's detail message, or the status text when
	// the body carried none.
	Message string

	// Err is the transport or decode failure, if any.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)

	case e.Err != nil:
		return fmt.Sprintf("%s %s (status %d): %v", e.Method, e.URL,
			e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s %s (status %d): %s", e.Method, e.URL,
		e.StatusCode, e.Message)
}

// Unwrap exposes the transport failure.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var rErr *RemoteError
	if !errors.As(err, &rErr) {
		return false
	}

	return rErr.StatusCode == http.StatusNotFound
}

// newRemoteError builds the error for a non-2xx response, pulling the message
// out of the {"detail": ...} envelope when there is one.
func newRemoteError(method, url string, status int, raw []byte) *RemoteError {
	return &RemoteError{
		Method:     method,
		URL:        url,
		StatusCode: status,
		Message:    detailMessage(status, raw),
	}
}

func detailMessage(status int, raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil &&
		len(envelope.Detail) > 0 {

		// Plain string detail.
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}

		// Structured detail, such as a list of field errors.
		var compact bytes.Buffer
		if err := json.Compact(&compact, envelope.Detail); err == nil {
			return compact.String()
		}
	}

	if body := strings.TrimSpace(string(raw)); body != "" &&
		len(body) <= 200 {

		return body
	}

	return http.StatusText(status)
}
