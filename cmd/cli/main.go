// Package main is the entry point for the insight CLI binary.
package main

import (
	"os"

	cli "insightd/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
