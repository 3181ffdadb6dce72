// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/siemens/ipsleuth/types"
)

// renderer renders the terminal display, based on the item snapshots passed to
// its Render method.
type renderer struct {
	Indentation int
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer rendering to the specified io.Writer, with
// its spinner already spinning at the specified interval.
func newRenderer(w io.Writer, spinnerInterval time.Duration) *renderer {
	sp := newSpinner(brailleSpinner)
	sp.Start(spinnerInterval)
	return &renderer{
		w:       w,
		spinner: sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given items, followed by their statistics.
func (r *renderer) Render(items []types.Item) {
	// For neat display, determine the length of the longest address so that
	// the details column doesn't zig-zag around.
	maxlen := 0
	for _, item := range items {
		if l := len(item.Address); l > maxlen {
			maxlen = l
		}
	}
	fmt.Fprintf(r.w, "checking %d addresses against %s\n",
		len(items), headingStyle.Styled("AbuseIPDB"))
	for _, item := range items {
		r.renderItem(maxlen, item)
	}
	r.renderStats(types.Tally(items))
}

// renderItem renders a single item with its status symbol and details.
func (r *renderer) renderItem(addrwidth int, item types.Item) {
	fmt.Fprintf(r.w, "%-*s", r.Indentation, "")
	addr := fmt.Sprintf("%-*s", addrwidth, item.Address)
	switch item.Status {
	case types.Pending:
		fmt.Fprintf(r.w, "? %s", addr)
	case types.Checking:
		fmt.Fprint(r.w, checkingAddressStyle.Styled(r.spinner.Spinner()+" "+addr))
	case types.Stopped:
		fmt.Fprint(r.w, stoppedAddressStyle.Styled("■ "+addr+"  stopped"))
	case types.Errored:
		fmt.Fprint(r.w, erroredAddressStyle.Styled("‼ "+addr+"  error: "+item.Error))
	case types.Completed:
		details := reportDetails(item.Report)
		switch item.Verdict() {
		case types.Malicious:
			fmt.Fprint(r.w, maliciousAddressStyle.Styled("× "+addr+"  malicious: "+details))
		case types.Warning:
			fmt.Fprint(r.w, warningAddressStyle.Styled("! "+addr+"  warning: "+details))
		default:
			fmt.Fprint(r.w, cleanAddressStyle.Styled("✔ "+addr+"  clean: "+details))
		}
	}
	fmt.Fprintln(r.w)
}

// reportDetails returns the number of reports together with the known
// country and ISP.
func reportDetails(r *types.Report) string {
	var b strings.Builder
	if r.TotalReports == 1 {
		b.WriteString("1 report")
	} else {
		fmt.Fprintf(&b, "%d reports", r.TotalReports)
	}
	var where []string
	if country := r.Country(); country != types.Unknown {
		where = append(where, country)
	}
	if r.ISP != "" {
		where = append(where, r.ISP)
	}
	if len(where) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(where, ", "))
	}
	return b.String()
}

// renderStats renders the statistics line.
func (r *renderer) renderStats(stats types.Stats) {
	fmt.Fprintf(r.w, "%d total: %d completed (%s, %s, %s)",
		stats.Total, stats.Completed,
		maliciousAddressStyle.Styled(fmt.Sprintf("%d malicious", stats.Malicious)),
		warningAddressStyle.Styled(fmt.Sprintf("%d warning", stats.Warning)),
		cleanAddressStyle.Styled(fmt.Sprintf("%d clean", stats.Clean)))
	if stats.Errors > 0 {
		fmt.Fprintf(r.w, ", %d errors", stats.Errors)
	}
	if stats.Stopped > 0 {
		fmt.Fprintf(r.w, ", %d stopped", stats.Stopped)
	}
	if stats.InProgress > 0 {
		fmt.Fprintf(r.w, ", %d in progress", stats.InProgress)
	}
	fmt.Fprintln(r.w)
}
