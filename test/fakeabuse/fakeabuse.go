// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package fakeabuse provides a fake AbuseIPDB “check” endpoint for use in
tests. Unless told otherwise, the fake reports every address as clean.

	fake := fakeabuse.New()
	defer fake.Close()
	fake.Reports("1.2.3.4", 150)
	client := abuseipdb.New(fakeabuse.APIKey, abuseipdb.WithBaseURL(fake.URL()))
*/
package fakeabuse

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// APIKey is the only API key the fake accepts; any other key gets a 401.
const APIKey = "fake-api-key"

// Request is a request as seen by the fake.
type Request struct {
	Address      string
	MaxAgeInDays int
	Key          string
	UserAgent    string
	At           time.Time
}

// Server is a fake AbuseIPDB API server.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	reports  map[string]int // total reports per address.
	statuses map[string]int // forced HTTP status codes per address.
	raw      map[string]string
	latency  time.Duration
	requests []Request
	released chan struct{} // when non-nil, responses block until closed.
}

// New starts and returns a new fake server; callers must Close it.
func New() *Server {
	s := &Server{
		reports:  map[string]int{},
		statuses: map[string]int{},
		raw:      map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/check", s.check)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the fake API, to be passed to
// abuseipdb.WithBaseURL.
func (s *Server) URL() string { return s.srv.URL + "/api/v2" }

// Close shuts down the fake server, releasing any held responses first.
func (s *Server) Close() {
	s.Release()
	s.srv.Close()
}

// Reports sets the total number of reports for the specified address.
func (s *Server) Reports(addr string, total int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[addr] = total
	return s
}

// Status forces the specified HTTP status code for lookups of the address.
func (s *Server) Status(addr string, status int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[addr] = status
	return s
}

// Raw sets the raw body of a successful response for the address.
func (s *Server) Raw(addr string, body string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[addr] = body
	return s
}

// Latency delays every response by the specified duration.
func (s *Server) Latency(d time.Duration) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
	return s
}

// Hold blocks all responses until Release is called.
func (s *Server) Hold() *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released == nil {
		s.released = make(chan struct{})
	}
	return s
}

// Release unblocks held responses.
func (s *Server) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released != nil {
		close(s.released)
		s.released = nil
	}
}

// Requests returns the requests received so far, in order of arrival.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Addresses returns the addresses looked up so far, in order of arrival.
func (s *Server) Addresses() []string {
	reqs := s.Requests()
	addrs := make([]string, 0, len(reqs))
	for _, req := range reqs {
		addrs = append(addrs, req.Address)
	}
	return addrs
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("ipAddress")
	maxAge, _ := strconv.Atoi(r.URL.Query().Get("maxAgeInDays"))
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Address:      addr,
		MaxAgeInDays: maxAge,
		Key:          r.Header.Get("Key"),
		UserAgent:    r.Header.Get("User-Agent"),
		At:           time.Now(),
	})
	latency := s.latency
	released := s.released
	status, forced := s.statuses[addr]
	raw, hasRaw := s.raw[addr]
	total := s.reports[addr]
	s.mu.Unlock()

	if released != nil {
		select {
		case <-released:
		case <-r.Context().Done():
			return
		}
	}
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Header.Get("Key") != APIKey:
		writeError(w, http.StatusUnauthorized, "Authentication failed. Your API key is either missing, incorrect, or revoked.")
		return
	case forced:
		writeError(w, status, "forced failure")
		return
	case hasRaw:
		_, _ = w.Write([]byte(raw))
		return
	}
	score := total
	if score > 100 {
		score = 100
	}
	data := map[string]any{
		"ipAddress":            addr,
		"isPublic":             true,
		"ipVersion":            4,
		"isWhitelisted":        false,
		"abuseConfidenceScore": score,
		"countryCode":          "DE",
		"countryName":          "Germany",
		"usageType":            "Data Center/Web Hosting/Transit",
		"isp":                  "Example Networks",
		"domain":               "example.net",
		"hostnames":            []string{},
		"isTor":                false,
		"totalReports":         total,
		"numDistinctUsers":     total / 2,
		"lastReportedAt":       nil,
	}
	if total > 0 {
		data["lastReportedAt"] = "2024-01-02T03:04:05+00:00"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{{"detail": detail, "status": status}},
	})
}
