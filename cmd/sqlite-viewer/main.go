// Package main is the entry point for the sqlite-viewer binary.
package main

import (
	"fmt"
	"os"

	"github.com/josancamon19/sqlite-viewer/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
