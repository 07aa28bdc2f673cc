// Package main provides the leapql command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
