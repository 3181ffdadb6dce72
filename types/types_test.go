// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"time"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = g.Describe("information model", func() {

	g.DescribeTable("classifies by total reports",
		func(reports int, verdict Verdict) {
			Expect(Classify(reports)).To(Equal(verdict))
		},
		g.Entry("no reports", 0, Clean),
		g.Entry("a single report", 1, Warning),
		g.Entry("exactly at the threshold", 100, Warning),
		g.Entry("just above the threshold", 101, Malicious),
		g.Entry("way above", 15000, Malicious),
	)

	g.It("never rates items that aren't completed", func() {
		for _, status := range []Status{Pending, Checking, Errored, Stopped} {
			Expect(Item{Address: "1.2.3.4", Status: status}.Verdict()).To(Equal(Unrated), status.String())
		}
		Expect(Item{Address: "1.2.3.4", Status: Completed, Report: &Report{}}.Verdict()).To(Equal(Clean))
	})

	g.It("knows terminal statuses", func() {
		Expect(Pending.IsTerminal()).To(BeFalse())
		Expect(Checking.IsTerminal()).To(BeFalse())
		Expect(Completed.IsTerminal()).To(BeTrue())
		Expect(Errored.IsTerminal()).To(BeTrue())
		Expect(Stopped.IsTerminal()).To(BeTrue())
		Expect(Checking.IsInProgress()).To(BeTrue())
		Expect(Stopped.IsInProgress()).To(BeFalse())
		Expect(Status(42).String()).To(Equal("Status(42)"))
	})

	g.It("round-trips statuses through JSON", func() {
		b := Successful(json.Marshal(Item{Address: "::1", Status: Errored, Error: "boom"}))
		Expect(string(b)).To(MatchJSON(`{"address":"::1","status":"error","error":"boom"}`))
		var item Item
		Expect(json.Unmarshal(b, &item)).To(Succeed())
		Expect(item.Status).To(Equal(Errored))
		var s Status
		Expect(json.Unmarshal([]byte(`"bogus"`), &s)).NotTo(Succeed())
	})

	g.It("tallies statistics", func() {
		items := []Item{
			{Address: "1.1.1.1", Status: Completed, Report: &Report{TotalReports: 150}},
			{Address: "1.1.1.2", Status: Completed, Report: &Report{TotalReports: 100}},
			{Address: "1.1.1.3", Status: Completed, Report: &Report{TotalReports: 0}},
			{Address: "1.1.1.4", Status: Errored, Error: "nope"},
			{Address: "1.1.1.5", Status: Stopped},
			{Address: "1.1.1.6", Status: Checking},
			{Address: "1.1.1.7", Status: Pending},
		}
		stats := Tally(items)
		Expect(stats).To(Equal(Stats{
			Total:      7,
			Completed:  3,
			InProgress: 2,
			Errors:     1,
			Stopped:    1,
			Malicious:  1,
			Warning:    1,
			Clean:      1,
		}))
		Expect(Tally(items)).To(Equal(stats))
		Expect(Tally(nil)).To(Equal(Stats{}))
	})

	g.It("renders missing report fields", func() {
		r := &Report{}
		Expect(r.Country()).To(Equal(Unknown))
		Expect(r.Provider()).To(Equal(Unknown))
		Expect(r.LastReported()).To(Equal("never"))

		ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		r = &Report{CountryCode: "DE", ISP: "ACME", LastReportedAt: &ts}
		Expect(r.Country()).To(Equal("DE"))
		r.CountryName = "Germany"
		Expect(r.Country()).To(Equal("Germany"))
		Expect(r.Provider()).To(Equal("ACME"))
		Expect(r.LastReported()).To(Equal("2024-05-01T12:00:00Z"))
	})

})
