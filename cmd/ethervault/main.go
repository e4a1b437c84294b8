// Package main is the entry point for the EtherVault CLI.
package main

import (
	"os"

	"github.com/ethervault/ethervault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
