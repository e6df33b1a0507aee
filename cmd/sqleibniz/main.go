// Package main is the sqleibniz command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqleibniz/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
