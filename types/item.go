// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "time"

// Report is the reputation information about a single IP address, as returned
// by the reputation service. Optional textual fields that the service leaves
// out are simply empty, and LastReportedAt is nil for never-reported addresses.
type Report struct {
	IPAddress            string     `json:"ipAddress"`
	IsPublic             bool       `json:"isPublic"`
	IPVersion            int        `json:"ipVersion"`
	IsWhitelisted        bool       `json:"isWhitelisted"`
	AbuseConfidenceScore int        `json:"abuseConfidenceScore"` // 0..100
	CountryCode          string     `json:"countryCode,omitempty"`
	CountryName          string     `json:"countryName,omitempty"`
	UsageType            string     `json:"usageType,omitempty"`
	ISP                  string     `json:"isp,omitempty"`
	Domain               string     `json:"domain,omitempty"`
	Hostnames            []string   `json:"hostnames,omitempty"`
	IsTor                bool       `json:"isTor"`
	TotalReports         int        `json:"totalReports"`
	NumDistinctUsers     int        `json:"numDistinctUsers"`
	LastReportedAt       *time.Time `json:"lastReportedAt,omitempty"`
}

// Unknown is rendered in place of optional report fields that are missing.
const Unknown = "unknown"

// Country returns the country name, falling back to the country code and
// finally to "unknown".
func (r *Report) Country() string {
	switch {
	case r.CountryName != "":
		return r.CountryName
	case r.CountryCode != "":
		return r.CountryCode
	}
	return Unknown
}

// Provider returns the ISP name or "unknown".
func (r *Report) Provider() string {
	if r.ISP == "" {
		return Unknown
	}
	return r.ISP
}

// LastReported returns the last-reported timestamp in RFC3339 format, or
// "never".
func (r *Report) LastReported() string {
	if r.LastReportedAt == nil {
		return "never"
	}
	return r.LastReportedAt.UTC().Format(time.RFC3339)
}

// Item is a single address under verification together with its current
// status and, depending on the status, either its report or error message.
//
// Items are always passed around as values: an Item obtained from a run is a
// snapshot that never changes under the hands of its receiver.
type Item struct {
	Address string  `json:"address"`
	Status  Status  `json:"status"`
	Report  *Report `json:"report,omitempty"` // only when Completed.
	Error   string  `json:"error,omitempty"`  // only when Errored.
	Kind    string  `json:"kind,omitempty"`   // lookup error kind, only when Errored.
}

// Verdict returns the classification of this item, which is Unrated unless the
// item has been completed.
func (i Item) Verdict() Verdict {
	if i.Status != Completed || i.Report == nil {
		return Unrated
	}
	return Classify(i.Report.TotalReports)
}

// TotalReports returns the number of abuse reports, or 0 for items without a
// report.
func (i Item) TotalReports() int {
	if i.Report == nil {
		return 0
	}
	return i.Report.TotalReports
}
