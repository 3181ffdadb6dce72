// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/siemens/ipsleuth/abuseipdb"

	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

// version of the ipsleuth tool.
const version = "0.9"

// Names of the environment variables that may supply the API key.
const (
	apiKeyEnv       = "ABUSEIPDB_API_KEY"
	legacyAPIKeyEnv = "VITE_ABUSEIPDB_API_KEY"
)

var errMissingAPIKey = errors.New("missing AbuseIPDB API key, use --api-key or set " + apiKeyEnv)

var (
	apiKey  *string
	baseURL *string
	maxAge  *uint
	debug   *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:          "ipsleuth",
		Short:        "ipsleuth checks IP addresses against the AbuseIPDB reputation database",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if *maxAge < 1 || *maxAge > 365 {
				return fmt.Errorf("--max-age out of range [1..365]")
			}
			if *apiKey == "" {
				*apiKey = envAPIKey()
			}
			if *apiKey == "" {
				return errMissingAPIKey
			}
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			return nil
		},
	}
	// Sets up the flags.
	apiKey = rootCmd.PersistentFlags().String(
		"api-key", "", "AbuseIPDB API key (default from $"+apiKeyEnv+")")
	baseURL = rootCmd.PersistentFlags().String(
		"base-url", abuseipdb.DefaultBaseURL, "AbuseIPDB API base URL")
	maxAge = rootCmd.PersistentFlags().Uint(
		"max-age", 90, "only consider reports of the last days")
	debug = rootCmd.PersistentFlags().Bool(
		"debug", false, "enable debugging output")

	rootCmd.AddCommand(newCheckCmd(), newServeCmd())
	return
}

// envAPIKey returns the API key from the environment, if any.
func envAPIKey() string {
	if key := os.Getenv(apiKeyEnv); key != "" {
		return key
	}
	return os.Getenv(legacyAPIKeyEnv)
}

// newClient returns an AbuseIPDB client configured from the persistent flags.
func newClient() *abuseipdb.Client {
	return abuseipdb.New(*apiKey,
		abuseipdb.WithBaseURL(*baseURL),
		abuseipdb.WithMaxAgeInDays(int(*maxAge)))
}
