// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// MaliciousThreshold is the number of abuse reports an address must exceed in
// order to be considered malicious.
const MaliciousThreshold = 100

// Verdict classifies a completed address by its total number of abuse reports.
type Verdict int

// The classification tiers; Unrated is reserved for addresses without a
// report, that is, addresses not (yet) completed.
const (
	Unrated Verdict = iota
	Clean
	Warning
	Malicious
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case Unrated:
		return "unrated"
	case Clean:
		return "clean"
	case Warning:
		return "warning"
	case Malicious:
		return "malicious"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// Classify returns the verdict for the specified total number of abuse
// reports: none is clean, up to and including MaliciousThreshold is a warning,
// and anything above is malicious.
func Classify(totalReports int) Verdict {
	switch {
	case totalReports > MaliciousThreshold:
		return Malicious
	case totalReports > 0:
		return Warning
	default:
		return Clean
	}
}
