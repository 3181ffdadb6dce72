// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"time"

	"github.com/siemens/ipsleuth/verifier"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the HTTP API.
type Config struct {
	Rate    float64 // API requests per second per client.
	Burst   int     // API request burst size per client.
	Version string  // reported by the health endpoint.
}

// NewRouter returns a gin engine serving the API for the specified verifier.
// The context ends the background maintenance of the rate limiter.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     RateLimit
//
// The health and metrics endpoints are not rate limited.
func NewRouter(ctx context.Context, v *verifier.Verifier, cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Logger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", Health(cfg.Version, time.Now()))

	api := v1.Group("")
	api.Use(RateLimit(ctx, cfg.Rate, cfg.Burst))

	api.POST("/runs", StartRun(v))
	api.GET("/runs/current", CurrentRun(v))
	api.POST("/runs/current/cancel", CancelRun(v))
	api.GET("/runs/current/export/malicious", ExportMalicious(v))
	api.GET("/runs/current/export/csv", ExportCSV(v))

	return r
}
