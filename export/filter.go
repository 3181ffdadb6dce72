// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package export

import (
	"fmt"
	"strings"

	"github.com/siemens/ipsleuth/types"
)

// Filter selects items by their status or verdict.
type Filter int

// The available item filters; Pending includes items being checked.
const (
	All Filter = iota
	MaliciousOnly
	WarningOnly
	CleanOnly
	ErrorOnly
	PendingOnly
	StoppedOnly
)

var filterNames = map[Filter]string{
	All:           "all",
	MaliciousOnly: "malicious",
	WarningOnly:   "warning",
	CleanOnly:     "clean",
	ErrorOnly:     "error",
	PendingOnly:   "pending",
	StoppedOnly:   "stopped",
}

// String returns the name of a Filter value.
func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Filter(%d)", f)
}

// ParseFilter returns the Filter with the specified (case-insensitive) name;
// the empty name means All.
func ParseFilter(name string) (Filter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return All, nil
	}
	for f, fname := range filterNames {
		if fname == name {
			return f, nil
		}
	}
	return All, fmt.Errorf("unknown filter %q", name)
}

// Match returns true if the item passes this filter.
func (f Filter) Match(item types.Item) bool {
	switch f {
	case All:
		return true
	case MaliciousOnly:
		return item.Verdict() == types.Malicious
	case WarningOnly:
		return item.Verdict() == types.Warning
	case CleanOnly:
		return item.Verdict() == types.Clean
	case ErrorOnly:
		return item.Status == types.Errored
	case PendingOnly:
		return item.Status.IsInProgress()
	case StoppedOnly:
		return item.Status == types.Stopped
	}
	return false
}

// Select returns the items passing the filter whose address or ISP contains
// the search term, ignoring case. An empty search term matches all items.
func Select(items []types.Item, filter Filter, search string) []types.Item {
	search = strings.ToLower(strings.TrimSpace(search))
	selected := []types.Item{}
	for _, item := range items {
		if !filter.Match(item) {
			continue
		}
		if search != "" && !matches(item, search) {
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

func matches(item types.Item, search string) bool {
	if strings.Contains(strings.ToLower(item.Address), search) {
		return true
	}
	return item.Report != nil && strings.Contains(strings.ToLower(item.Report.ISP), search)
}
