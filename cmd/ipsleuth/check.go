// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siemens/ipsleuth/export"
	"github.com/siemens/ipsleuth/iplist"
	"github.com/siemens/ipsleuth/types"
	"github.com/siemens/ipsleuth/verifier"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

var (
	indentation     *uint
	spinnerInterval *time.Duration
	maliciousOut    *string
	csvOut          *string
)

func newCheckCmd() (checkCmd *cobra.Command) {
	checkCmd = &cobra.Command{
		Use:   "check [flags] [file]",
		Short: "check the IP addresses listed in a file, or read from stdin",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if *indentation > 80 {
				return fmt.Errorf("--indent width out of range [0..80]")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("cannot open address list: %w", err)
				}
				defer f.Close()
				in = f
			}
			// The first SIGINT/SIGTERM cancels the run; any further signals
			// are swallowed until the run has come to a halt.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			items, err := CheckAndReport(ctx, newClient(), in, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return writeExports(items, time.Now())
		},
	}
	indentation = checkCmd.Flags().Uint(
		"indent", 3, "indentation width")
	spinnerInterval = checkCmd.Flags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	maliciousOut = checkCmd.Flags().String(
		"malicious-out", "", "write malicious IPs to this file (\"-\" for an automatic name)")
	csvOut = checkCmd.Flags().String(
		"csv-out", "", "write all results as CSV to this file (\"-\" for an automatic name)")
	return
}

// CheckAndReport reads an address list and then verifies the addresses one
// after another, continuously rendering the progress to out. When the context
// gets cancelled, the run is cancelled too, but CheckAndReport still waits for
// the run to come to a halt. It returns the final items of the run.
func CheckAndReport(
	ctx context.Context,
	lookup verifier.Lookuper,
	in io.Reader,
	out io.Writer,
	options ...verifier.VerifierOption,
) ([]types.Item, error) {
	addrs, err := iplist.Read(in)
	if err != nil {
		return nil, err
	}
	log.Debugf("checking %d addresses", len(addrs))

	v := verifier.New(lookup, options...)
	defer v.StopWait()
	run, err := v.Start(addrs)
	if err != nil {
		return nil, err
	}

	renderingDone := make(chan struct{})
	go func() {
		// uilive's own Start() refresh may fire halfway through rendering a
		// frame, so frames get flushed explicitly once complete.
		term := uilive.New()
		term.Out = out
		renderer := newRenderer(term, *spinnerInterval)
		renderer.Indentation = int(*indentation)
		defer func() {
			renderData(term, renderer, run)
			renderer.Stop()
			close(renderingDone)
		}()
		renderData(term, renderer, run)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, run)
			case <-run.Done():
				return
			}
		}
	}()

	select {
	case <-run.Done():
	case <-ctx.Done():
		log.Infof("cancelling, waiting for the lookup in flight to finish...")
		v.Cancel(run)
	}
	<-renderingDone
	return run.Items(), nil
}

// renderData gets the current item snapshots and then renders (and flushes)
// them to the terminal.
func renderData(term *uilive.Writer, r *renderer, run *verifier.Run) {
	r.Render(run.Items())
	_ = term.Flush()
}

// writeExports writes the exports requested by flags. An empty malicious
// export is only logged.
func writeExports(items []types.Item, now time.Time) error {
	if *maliciousOut != "" {
		doc, err := export.MaliciousDocument(items, now)
		if err != nil {
			log.Infof("%s", err.Error())
		} else {
			name := outName(*maliciousOut, export.MaliciousFileName(now))
			if err := os.WriteFile(name, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("cannot write malicious IPs: %w", err)
			}
			log.Infof("malicious IPs written to %s", name)
		}
	}
	if *csvOut != "" {
		name := outName(*csvOut, export.CSVFileName(now))
		f, err := createFile(name)
		if err != nil {
			return fmt.Errorf("cannot create CSV file: %w", err)
		}
		if err := export.CSV(f, items); err != nil {
			_ = f.Close()
			return fmt.Errorf("cannot write CSV file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("cannot write CSV file: %w", err)
		}
		log.Infof("results written to %s", name)
	}
	return nil
}

// For CLI unit tests...
var createFile = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// outName returns the automatic file name when name is "-", otherwise name.
func outName(name string, auto string) string {
	if name == "-" {
		return auto
	}
	return name
}
