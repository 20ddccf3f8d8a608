// SPDX-License-Identifier: MIT
package main

import (
	"arpsd/cmd"
	applog "arpsd/internal/log"
	"arpsd/pkg/build"
)

// main loads build information and hands over to the command line. Spectral
// work runs inside the commands; there is no long-lived engine here.
func main() {
	// Development builds carry no ldflags and keep the "dev" defaults.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		applog.Fatalf("%v", err)
	}
}
