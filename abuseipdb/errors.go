// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package abuseipdb

import (
	"errors"
	"fmt"
)

// Kind classifies lookup failures.
type Kind int

// The kinds of lookup failures.
const (
	Unknown       Kind = iota // any other non-2xx status, or malformed response.
	RateLimited               // HTTP 429
	Unauthorized              // HTTP 401
	InvalidFormat             // HTTP 422, or rejected locally before sending.
	Network                   // transport-level failure.
)

// String returns the clear-text representation of a Kind value.
func (k Kind) String() string {
	switch k {
	case RateLimited:
		return "rate-limited"
	case Unauthorized:
		return "unauthorized"
	case InvalidFormat:
		return "invalid-format"
	case Network:
		return "network"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// LookupError is returned by [Client.Lookup] for failed lookups.
type LookupError struct {
	Kind    Kind
	Status  int    // HTTP status code, or 0 if no response has been received.
	Message string // human-readable description.
	Detail  string // optional detail from the service's error response.
	Err     error  // optional underlying error.
}

// Error returns the error message, including the service's detail if known.
func (e *LookupError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *LookupError) Unwrap() error { return e.Err }

// KindOf returns the Kind of a lookup error, or Unknown for any other error.
func KindOf(err error) Kind {
	var lerr *LookupError
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return Unknown
}

// newStatusError maps an HTTP status code to its LookupError.
func newStatusError(status int, statusText string, detail string) *LookupError {
	lerr := &LookupError{Status: status, Detail: detail}
	switch status {
	case 429:
		lerr.Kind = RateLimited
		lerr.Message = "rate limit exceeded, please wait before making more requests"
	case 401:
		lerr.Kind = Unauthorized
		lerr.Message = "invalid API key or unauthorized access"
	case 422:
		lerr.Kind = InvalidFormat
		lerr.Message = "invalid IP address format"
	default:
		lerr.Kind = Unknown
		lerr.Message = fmt.Sprintf("API request failed: %d - %s", status, statusText)
	}
	return lerr
}
