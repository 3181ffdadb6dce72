// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siemens/ipsleuth/server"
	"github.com/siemens/ipsleuth/verifier"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

// shutdownTimeout limits waiting for in-flight requests when shutting down.
const shutdownTimeout = 5 * time.Second

var (
	listenAddr *string
	apiRate    *float64
	apiBurst   *int
)

func newServeCmd() (serveCmd *cobra.Command) {
	serveCmd = &cobra.Command{
		Use:   "serve [flags]",
		Short: "serve the ipsleuth HTTP API",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if *apiRate <= 0 {
				return fmt.Errorf("--rate must be positive")
			}
			if *apiBurst < 1 {
				return fmt.Errorf("--burst must be at least 1")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, *listenAddr, newClient())
		},
	}
	listenAddr = serveCmd.Flags().String(
		"listen", ":8080", "address to listen on")
	apiRate = serveCmd.Flags().Float64(
		"rate", 5, "API requests per second per client")
	apiBurst = serveCmd.Flags().Int(
		"burst", 10, "API request burst per client")
	return
}

// Serve the HTTP API on the specified address until the context is done, then
// shut down gracefully.
func Serve(ctx context.Context, addr string, lookup verifier.Lookuper) error {
	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	v := verifier.New(lookup)
	defer v.StopWait()

	routerctx, cancel := context.WithCancel(ctx)
	defer cancel()
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(routerctx, v, server.Config{Rate: *apiRate, Burst: *apiBurst, Version: version}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errch := make(chan error, 1)
	go func() {
		log.Infof("serving API on %s", addr)
		errch <- srv.ListenAndServe()
	}()

	select {
	case err := <-errch:
		return fmt.Errorf("cannot serve API: %w", err)
	case <-ctx.Done():
	}
	log.Infof("shutting down...")
	shutdownctx, shutdowncancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdowncancel()
	if err := srv.Shutdown(shutdownctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("cannot shut down API server: %w", err)
	}
	return nil
}
