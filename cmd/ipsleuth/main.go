// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// An optional .env file may supply the API key; the process environment
	// always takes precedence.
	_ = godotenv.Load()
	// cobra already prints the error, so only the exit code is left to set.
	if err := newRootCmd().Execute(); err != nil {
		osExit(1)
	}
}

// For CLI unit tests...
var osExit = os.Exit
