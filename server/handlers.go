// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/siemens/ipsleuth/export"
	"github.com/siemens/ipsleuth/iplist"
	"github.com/siemens/ipsleuth/types"
	"github.com/siemens/ipsleuth/verifier"

	"github.com/gin-gonic/gin"
	"github.com/thediveo/lxkns/log"
)

// HealthResponse is the body of health responses.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// StartRequest is the JSON body for starting a new run.
type StartRequest struct {
	Addresses []string `json:"addresses"`
}

// RunResponse describes a run.
type RunResponse struct {
	ID              int          `json:"id"`
	Running         bool         `json:"running"`
	CancelRequested bool         `json:"cancelRequested"`
	StartedAt       time.Time    `json:"startedAt"`
	FinishedAt      *time.Time   `json:"finishedAt,omitempty"`
	Stats           types.Stats  `json:"stats"`
	Items           []types.Item `json:"items,omitempty"`
}

func runResponse(run *verifier.Run, items []types.Item) RunResponse {
	resp := RunResponse{
		ID:              run.ID,
		Running:         run.Running(),
		CancelRequested: run.CancelRequested(),
		StartedAt:       run.StartedAt,
		Stats:           run.Stats(),
		Items:           items,
	}
	if finished := run.FinishedAt(); !finished.IsZero() {
		resp.FinishedAt = &finished
	}
	return resp
}

// Health returns a handler for GET /api/v1/health.
func Health(version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}

// StartRun returns a handler for POST /api/v1/runs, accepting either a plain
// text address list or a JSON StartRequest.
func StartRun(v *verifier.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, iplist.MaxUploadSize+1))
		if err != nil {
			abort(c, http.StatusBadRequest, ErrCodeInvalidInput, "cannot read request body")
			return
		}
		if len(body) > iplist.MaxUploadSize {
			abort(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, iplist.ErrTooLarge.Error())
			return
		}
		var addrs []string
		if strings.HasPrefix(c.ContentType(), "application/json") {
			var req StartRequest
			if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
				abort(c, http.StatusBadRequest, ErrCodeInvalidInput, "invalid JSON body: "+err.Error())
				return
			}
			addrs = iplist.Parse(strings.Join(req.Addresses, "\n"))
		} else {
			addrs = iplist.Parse(string(body))
		}
		run, err := v.Start(addrs)
		if err != nil {
			switch {
			case errors.Is(err, verifier.ErrStopped):
				abort(c, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
			default:
				abort(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())
			}
			return
		}
		log.Infof("started run %d with %d addresses", run.ID, len(addrs))
		c.JSON(http.StatusAccepted, runResponse(run, run.Items()))
	}
}

// currentRun returns the current run, or aborts with 404 if there is none.
func currentRun(c *gin.Context, v *verifier.Verifier) *verifier.Run {
	run := v.Current()
	if run == nil {
		abort(c, http.StatusNotFound, ErrCodeNoRun, "no run has been started")
	}
	return run
}

// CurrentRun returns a handler for GET /api/v1/runs/current, optionally
// filtering items by the "filter" and "search" query parameters. The
// statistics always cover all items.
func CurrentRun(v *verifier.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := export.ParseFilter(c.Query("filter"))
		if err != nil {
			abort(c, http.StatusBadRequest, ErrCodeInvalidFilter, err.Error())
			return
		}
		run := currentRun(c, v)
		if run == nil {
			return
		}
		items := export.Select(run.Items(), filter, c.Query("search"))
		c.JSON(http.StatusOK, runResponse(run, items))
	}
}

// CancelRun returns a handler for POST /api/v1/runs/current/cancel.
func CancelRun(v *verifier.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		run := currentRun(c, v)
		if run == nil {
			return
		}
		v.Cancel(run)
		log.Infof("cancelled run %d", run.ID)
		c.JSON(http.StatusAccepted, runResponse(run, nil))
	}
}

// ExportMalicious returns a handler for GET
// /api/v1/runs/current/export/malicious.
func ExportMalicious(v *verifier.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		run := currentRun(c, v)
		if run == nil {
			return
		}
		now := time.Now()
		doc, err := export.MaliciousDocument(run.Items(), now)
		if err != nil {
			var eerr *export.EmptyExportError
			if errors.As(err, &eerr) {
				abort(c, http.StatusNotFound, ErrCodeEmptyExport, err.Error())
				return
			}
			abort(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.MaliciousFileName(now)+`"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc))
	}
}

// ExportCSV returns a handler for GET /api/v1/runs/current/export/csv.
func ExportCSV(v *verifier.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		run := currentRun(c, v)
		if run == nil {
			return
		}
		var b bytes.Buffer
		if err := export.CSV(&b, run.Items()); err != nil {
			abort(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.CSVFileName(time.Now())+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", b.Bytes())
	}
}
