// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"fmt"
)

// Status indicates where an address currently is in its verification
// lifecycle, such as pending, checking, completed, et cetera.
type Status int

// The verification statuses of an address. Completed, Errored and Stopped are
// terminal: once reached, an address never changes its status anymore.
const (
	Pending   Status = iota // address waiting for its turn.
	Checking                // address lookup in flight.
	Completed               // lookup succeeded, report attached.
	Errored                 // lookup failed, error message attached.
	Stopped                 // run was cancelled before the address got a verdict.
)

// String returns the clear-text representation of a Status value.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Checking:
		return "checking"
	case Completed:
		return "completed"
	case Errored:
		return "error"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("Status(%d)", s)
}

// IsTerminal returns true if an address has reached its final status.
func (s Status) IsTerminal() bool {
	switch s {
	case Completed, Errored, Stopped:
		return true
	default:
		return false
	}
}

// IsInProgress returns true as long as an address is either waiting for its
// lookup or its lookup is in flight.
func (s Status) IsInProgress() bool {
	return s == Pending || s == Checking
}

// MarshalJSON encodes a Status as its clear-text representation.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a Status from its clear-text representation.
func (s *Status) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	for candidate := Pending; candidate <= Stopped; candidate++ {
		if candidate.String() == text {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
