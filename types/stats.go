// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

// Stats are aggregate statistics over the items of a run. They are never
// stored but always derived from the items using Tally.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"` // pending plus checking
	Errors     int `json:"errors"`
	Stopped    int `json:"stopped"`
	Malicious  int `json:"malicious"`
	Warning    int `json:"warning"`
	Clean      int `json:"clean"`
}

// Tally computes the statistics for the specified items.
func Tally(items []Item) Stats {
	stats := Stats{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case Pending, Checking:
			stats.InProgress++
		case Errored:
			stats.Errors++
		case Stopped:
			stats.Stopped++
		case Completed:
			stats.Completed++
			switch item.Verdict() {
			case Malicious:
				stats.Malicious++
			case Warning:
				stats.Warning++
			case Clean:
				stats.Clean++
			}
		}
	}
	return stats
}
