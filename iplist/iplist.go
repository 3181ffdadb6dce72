// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package iplist

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// MaxUploadSize is the maximum size in bytes of an address list accepted by
// [Read].
const MaxUploadSize = 1 << 20

var (
	// ErrNoAddresses signals that an address list doesn't contain a single
	// valid address.
	ErrNoAddresses = errors.New("no valid IP addresses found")
	// ErrTooLarge signals that an address list exceeds MaxUploadSize.
	ErrTooLarge = fmt.Errorf("address list exceeds %d bytes", MaxUploadSize)
)

var (
	ipv4 = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	ipv6 = regexp.MustCompile(`^(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$|^::1$|^::$`)

	separators = regexp.MustCompile(`[\n,;|\s]+`)
)

// ValidationError tells which address in a list is unacceptable, and why.
type ValidationError struct {
	Address string // offending address, if any.
	Err     error  // reason.
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Address == "" {
		return "validation error: " + e.Err.Error()
	}
	return fmt.Sprintf("validation error: %q: %s", e.Address, e.Err.Error())
}

// Unwrap returns the underlying reason.
func (e *ValidationError) Unwrap() error { return e.Err }

var (
	errInvalid   = errors.New("not a valid IPv4 or IPv6 address")
	errDuplicate = errors.New("duplicate address")
)

// IsValid returns true if s is either a strict IPv4 dotted quad or an IPv6
// address in full eight-hextet notation. The only compressed IPv6 forms
// accepted are "::" and "::1".
func IsValid(s string) bool {
	return ipv4.MatchString(s) || ipv6.MatchString(s)
}

// Parse splits the content of an address list into its tokens, separated by
// newlines, commas, semicolons, pipes, or whitespace. Tokens that aren't valid
// addresses are silently dropped, as are duplicates; the order of first
// occurrence is preserved.
func Parse(content string) []string {
	seen := map[string]struct{}{}
	addrs := []string{}
	for _, token := range separators.Split(content, -1) {
		token = strings.TrimSpace(token)
		if token == "" || !IsValid(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		addrs = append(addrs, token)
	}
	return addrs
}

// Read reads an address list of at most MaxUploadSize bytes from r and
// returns its valid and deduplicated addresses. It returns ErrTooLarge for
// oversized input and a ValidationError wrapping ErrNoAddresses when there is
// nothing to check.
func Read(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read address list: %w", err)
	}
	if len(content) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	addrs := Parse(string(content))
	if len(addrs) == 0 {
		return nil, &ValidationError{Err: ErrNoAddresses}
	}
	return addrs, nil
}

// Validate checks that addrs is a non-empty list of unique, valid addresses,
// returning a ValidationError for the first offending address otherwise.
func Validate(addrs []string) error {
	if len(addrs) == 0 {
		return &ValidationError{Err: ErrNoAddresses}
	}
	seen := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		if !IsValid(addr) {
			return &ValidationError{Address: addr, Err: errInvalid}
		}
		if _, ok := seen[addr]; ok {
			return &ValidationError{Address: addr, Err: errDuplicate}
		}
		seen[addr] = struct{}{}
	}
	return nil
}
