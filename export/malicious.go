// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/siemens/ipsleuth/types"
)

// EmptyExportError is returned when there is nothing to export.
type EmptyExportError struct {
	What string // what was to be exported.
}

// Error returns the error message.
func (e *EmptyExportError) Error() string {
	return "no " + e.What + " found to export"
}

// MaliciousItems returns only the completed items classified as malicious, in
// their input order.
func MaliciousItems(items []types.Item) []types.Item {
	malicious := []types.Item{}
	for _, item := range items {
		if item.Verdict() == types.Malicious {
			malicious = append(malicious, item)
		}
	}
	return malicious
}

// Malicious returns the malicious items as text lines of the form
// "address - N reports (country) - isp", omitting the country and isp parts
// when unknown. It returns an EmptyExportError if there are no malicious items
// at all.
func Malicious(items []types.Item) (string, error) {
	var lines []string
	for _, item := range MaliciousItems(items) {
		var b strings.Builder
		fmt.Fprintf(&b, "%s - %d reports", item.Address, item.Report.TotalReports)
		if item.Report.CountryName != "" {
			fmt.Fprintf(&b, " (%s)", item.Report.CountryName)
		}
		if item.Report.ISP != "" {
			fmt.Fprintf(&b, " - %s", item.Report.ISP)
		}
		lines = append(lines, b.String())
	}
	if len(lines) == 0 {
		return "", &EmptyExportError{What: "malicious IPs"}
	}
	return strings.Join(lines, "\n"), nil
}

// MaliciousDocument returns the complete text document of malicious items,
// headed by a timestamp and a format description.
func MaliciousDocument(items []types.Item, now time.Time) (string, error) {
	lines, err := Malicious(items)
	if err != nil {
		return "", err
	}
	return "# Malicious IPs - " + now.Format(time.RFC3339) + "\n" +
		"# Format: IP - Reports - Country - ISP\n\n" +
		lines + "\n", nil
}

// MaliciousFileName returns the suggested file name for the malicious IPs
// document.
func MaliciousFileName(now time.Time) string {
	return "malicious-ips-" + now.Format(time.DateOnly) + ".txt"
}
