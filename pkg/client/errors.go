package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 answers and requests held back by a cooldown.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures (DNS, connect, timeout, cancel).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a success status with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"
)

// ErrCooldownActive is wrapped by a FetchError when the request was held back
// because the source recently throttled us.
var ErrCooldownActive = errors.New("source cooldown active")

// FetchError reports a page fetch that did not succeed. It is the only error
// kind returned by LoadPage besides argument validation errors.
type FetchError struct {
	Page       int
	Limit      int
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	prefix := "fetch"
	if e.Page > 0 {
		prefix = fmt.Sprintf("fetch page %d (limit %d)", e.Page, e.Limit)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error (status %d): %s: %v",
			prefix, e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s error (status %d): %s",
		prefix, e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError extracts a *FetchError from err's chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// classifyStatus maps a non-success HTTP status to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		// 1xx and unfollowed 3xx are not success either
		return ErrorClassClient
	}
}
