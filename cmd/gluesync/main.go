// Package main is the entry point for the gluesync binary.
package main

import (
	"os"

	cli "gluesync/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
