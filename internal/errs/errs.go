// Package errs defines the classified error that crosses every stage boundary.
// Raw transport and parse errors are normalized here before pipeline code sees them.
package errs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Kind is the retry taxonomy of a failure
type Kind string

const (
	KindTransient  Kind = "TRANSIENT"
	KindServer     Kind = "SERVER"
	KindParsing    Kind = "PARSING"
	KindValidation Kind = "VALIDATION"
	KindFatal      Kind = "FATAL"
)

// ErrEmptyOutput is wrapped by providers when the service answered without any text
var ErrEmptyOutput = errors.New("generation service returned no output")

// Error is the normalized {kind, message, cause} value
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the controller may try again after this failure
func (e *Error) Retryable() bool {
	return e.Kind != KindFatal
}

// New creates a classified error
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Parsing creates a PARSING error
func Parsing(message string, cause error) *Error {
	return New(KindParsing, message, cause)
}

// Validation creates a VALIDATION error for well-formed but degenerate output
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of err after classification
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(err).Kind
}

var (
	transientHints = []string{
		"resource_exhausted",
		"rate limit",
		"too many requests",
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"temporar",
		"unexpected eof",
	}
	serverHints = []string{
		"unavailable",
		"internal error",
		"internal server error",
		"bad gateway",
		"overloaded",
	}
	// a bare three-digit status token, so "1500" or "v503b" never match
	statusToken = regexp.MustCompile(`(?:^|[^0-9A-Za-z])([1-5][0-9]{2})(?:$|[^0-9A-Za-z])`)
)

// Classify normalizes any error into an *Error
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return New(KindFatal, "generation cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTransient, "generation call timed out", err)
	}
	if errors.Is(err, ErrEmptyOutput) {
		return New(KindServer, "empty response from generation service", err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return New(kindForStatus(apiErr.StatusCode), "openai request failed", err)
	}
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return New(kindForStatus(geminiErr.Code), "gemini request failed", err)
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return New(kindForStatus(geminiErrPtr.Code), "gemini request failed", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(KindTransient, "network timeout", err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return New(KindTransient, "connection dropped", err)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range statusToken.FindAllStringSubmatch(msg, -1) {
		status, _ := strconv.Atoi(m[1])
		switch kind := kindForStatus(status); kind {
		case KindTransient, KindServer:
			return New(kind, "generation service failure", err)
		}
	}
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return New(KindTransient, "transient generation failure", err)
		}
	}
	for _, hint := range serverHints {
		if strings.Contains(msg, hint) {
			return New(KindServer, "generation service failure", err)
		}
	}

	return New(KindFatal, "unrecoverable generation failure", err)
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return KindTransient
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindFatal
	}
}
