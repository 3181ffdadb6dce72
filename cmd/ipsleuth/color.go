// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	checkingAddressStyle  = termenv.Style{}.Foreground(termenv.ANSIYellow)
	cleanAddressStyle     = termenv.Style{}.Foreground(termenv.ANSIGreen)
	warningAddressStyle   = termenv.Style{}.Foreground(termenv.ANSIYellow).Bold()
	maliciousAddressStyle = termenv.Style{}.Foreground(termenv.ANSIRed).Bold()
	stoppedAddressStyle   = termenv.Style{}.Foreground(termenv.ANSIBrightBlack)
	erroredAddressStyle   = termenv.Style{}.Foreground(termenv.ANSIMagenta)
)

var headingStyle = termenv.Style{}.Bold()
