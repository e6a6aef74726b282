// Package main provides the entry point for the indexwrap CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/indexwrap/cmd/indexwrap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
