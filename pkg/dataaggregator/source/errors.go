package source

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorUnsupportedStation   ErrorKind = "UnsupportedStation"
	ErrorFeedUnavailable      ErrorKind = "FeedUnavailable"
	ErrorUpstreamTimeout      ErrorKind = "UpstreamTimeout"
	ErrorUpstreamUnavailable  ErrorKind = "UpstreamUnavailable"
	ErrorDecodeFailure        ErrorKind = "DecodeFailure"
	ErrorParseFailure         ErrorKind = "ParseFailure"
	ErrorResolutionMismatch   ErrorKind = "ResolutionMismatch"
	ErrorInternalBuildFailure ErrorKind = "InternalBuildFailure"
)

type errorDefinition struct {
	Code     int
	Category string
}

var errorDefinitions = map[ErrorKind]errorDefinition{
	ErrorUnsupportedStation:   {4007, "Unsupported Station"},
	ErrorFeedUnavailable:      {5003, "Station Feed Unavailable"},
	ErrorUpstreamTimeout:      {5041, "Upstream Timeout"},
	ErrorUpstreamUnavailable:  {5042, "Upstream Unavailable"},
	ErrorDecodeFailure:        {5043, "Could not decode GTFS-RT feed"},
	ErrorParseFailure:         {5044, "Could not parse departure board"},
	ErrorResolutionMismatch:   {2001, "Destination Mismatch"},
	ErrorInternalBuildFailure: {5045, "Could not build departure"},
}

// FeedError carries enough detail for a transport adapter to pick a response
// without looking at the wrapped cause
type FeedError struct {
	Kind     ErrorKind `json:"-"`
	Code     int       `json:"code"`
	Category string    `json:"category"`
	Message  string    `json:"message"`

	Err error `json:"-"`
}

func NewError(kind ErrorKind, message string, err error) *FeedError {
	definition := errorDefinitions[kind]

	return &FeedError{
		Kind:     kind,
		Code:     definition.Code,
		Category: definition.Category,
		Message:  message,
		Err:      err,
	}
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Code, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Category, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func IsKind(err error, kind ErrorKind) bool {
	var feedError *FeedError
	if errors.As(err, &feedError) {
		return feedError.Kind == kind
	}
	return false
}

// ErrorCode returns the code of the outermost FeedError, or 0
func ErrorCode(err error) int {
	var feedError *FeedError
	if errors.As(err, &feedError) {
		return feedError.Code
	}
	return 0
}
