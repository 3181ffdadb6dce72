// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/siemens/ipsleuth/types"
)

// CSVHeader lists the columns of CSV exports.
var CSVHeader = []string{"IP", "Total Reports", "Abuse Score", "Country", "ISP", "Last Reported"}

// CSV writes all items in their input order as CSV with a header line.
// Items without a report only have their address column filled in.
func CSV(w io.Writer, items []types.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write(csvRecord(item)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(item types.Item) []string {
	r := item.Report
	if item.Status != types.Completed || r == nil {
		return []string{item.Address, "", "", "", "", ""}
	}
	country := r.CountryCode
	if country == "" {
		country = types.Unknown
	}
	return []string{
		item.Address,
		strconv.Itoa(r.TotalReports),
		strconv.Itoa(r.AbuseConfidenceScore),
		country,
		r.Provider(),
		r.LastReported(),
	}
}

// CSVFileName returns the suggested file name for CSV exports.
func CSVFileName(now time.Time) string {
	return "ip-results-" + now.Format(time.DateOnly) + ".csv"
}
