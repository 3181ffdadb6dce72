// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package abuseipdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/siemens/ipsleuth/iplist"
	"github.com/siemens/ipsleuth/types"
)

// DefaultBaseURL is the AbuseIPDB API v2 endpoint.
const DefaultBaseURL = "https://api.abuseipdb.com/api/v2"

// DefaultUserAgent is sent with every lookup request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (compatible; IP-Checker/1.0)"

const maxResponseBytes = 1 << 20

// Client looks up the reputation of single IP addresses using the AbuseIPDB
// “check” endpoint. A Client takes care of the transport, injecting the API
// key, and mapping HTTP status codes to [LookupError] kinds.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	maxAgeDays int
	httpClient *http.Client
}

// ClientOption can be passed to New when creating new Client objects.
type ClientOption func(*Client)

// New returns a new [Client] using the specified API key. By default, the
// client asks for reports of the last 90 days and uses a request timeout of
// 30s.
//
// The client can be configured during creation using several options:
//   - [WithBaseURL]
//   - [WithHTTPClient]
//   - [WithMaxAgeInDays]
//   - [WithUserAgent]
func New(apiKey string, options ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		maxAgeDays: 90,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// WithBaseURL sets the base URL of the API, such as a test server or a relay.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client to use for lookups.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxAgeInDays takes the number of days between 1 and 365 to consider
// abuse reports for.
func WithMaxAgeInDays(days int) ClientOption {
	if days < 1 || days > 365 {
		panic(fmt.Errorf("Client: max age must be between 1 and 365 days, got: %d", days))
	}
	return func(c *Client) {
		c.maxAgeDays = days
	}
}

// WithUserAgent sets the User-Agent header of lookup requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// checkResponse is the envelope of a successful check response.
type checkResponse struct {
	Data *checkData `json:"data"`
}

// checkData mirrors the check response data; the service sends null for
// unknown optional fields.
type checkData struct {
	IPAddress            string   `json:"ipAddress"`
	IsPublic             bool     `json:"isPublic"`
	IPVersion            int      `json:"ipVersion"`
	IsWhitelisted        *bool    `json:"isWhitelisted"`
	AbuseConfidenceScore int      `json:"abuseConfidenceScore"`
	CountryCode          *string  `json:"countryCode"`
	CountryName          *string  `json:"countryName"`
	UsageType            *string  `json:"usageType"`
	ISP                  *string  `json:"isp"`
	Domain               *string  `json:"domain"`
	Hostnames            []string `json:"hostnames"`
	IsTor                bool     `json:"isTor"`
	TotalReports         int      `json:"totalReports"`
	NumDistinctUsers     int      `json:"numDistinctUsers"`
	LastReportedAt       *string  `json:"lastReportedAt"`
}

// errorResponse is the body the service sends along with error status codes.
type errorResponse struct {
	Errors []struct {
		Detail string `json:"detail"`
		Status int    `json:"status"`
	} `json:"errors"`
}

// Lookup returns the reputation report for the specified address, or a
// [LookupError]. Addresses that aren't valid are rejected without contacting
// the service.
func (c *Client) Lookup(ctx context.Context, addr string) (*types.Report, error) {
	if !iplist.IsValid(addr) {
		return nil, &LookupError{
			Kind:    InvalidFormat,
			Message: "invalid IP address format",
			Detail:  addr,
		}
	}
	query := url.Values{
		"ipAddress":    []string{addr},
		"maxAgeInDays": []string{strconv.Itoa(c.maxAgeDays)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/check?"+query.Encode(), nil)
	if err != nil {
		return nil, &LookupError{Kind: Unknown, Message: "cannot create API request", Err: err}
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{
			Kind:    Network,
			Message: "network error: unable to connect to AbuseIPDB API",
			Err:     err,
		}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &LookupError{
			Kind:    Network,
			Status:  resp.StatusCode,
			Message: "network error: incomplete response from AbuseIPDB API",
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode,
			http.StatusText(resp.StatusCode), errorDetail(body))
	}

	var envelope checkResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &LookupError{
			Kind: Unknown, Status: resp.StatusCode, Message: "malformed API response", Err: err}
	}
	if envelope.Data == nil {
		return nil, &LookupError{
			Kind: Unknown, Status: resp.StatusCode, Message: "malformed API response",
			Err: errors.New("missing data")}
	}
	return envelope.Data.report(addr), nil
}

// errorDetail returns the first error detail from an error response body, if
// any.
func errorDetail(body []byte) string {
	var eresp errorResponse
	if err := json.Unmarshal(body, &eresp); err != nil || len(eresp.Errors) == 0 {
		return ""
	}
	return eresp.Errors[0].Detail
}

// report converts the wire data into a Report, normalizing absent optional
// fields instead of failing on them.
func (d *checkData) report(addr string) *types.Report {
	r := &types.Report{
		IPAddress:            d.IPAddress,
		IsPublic:             d.IsPublic,
		IPVersion:            d.IPVersion,
		AbuseConfidenceScore: clampScore(d.AbuseConfidenceScore),
		CountryCode:          deref(d.CountryCode),
		CountryName:          deref(d.CountryName),
		UsageType:            deref(d.UsageType),
		ISP:                  deref(d.ISP),
		Domain:               deref(d.Domain),
		Hostnames:            d.Hostnames,
		IsTor:                d.IsTor,
		TotalReports:         d.TotalReports,
		NumDistinctUsers:     d.NumDistinctUsers,
	}
	if r.IPAddress == "" {
		r.IPAddress = addr
	}
	if d.IsWhitelisted != nil {
		r.IsWhitelisted = *d.IsWhitelisted
	}
	if r.TotalReports < 0 {
		r.TotalReports = 0
	}
	if d.LastReportedAt != nil {
		if ts, err := time.Parse(time.RFC3339, *d.LastReportedAt); err == nil {
			r.LastReportedAt = &ts
		}
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
