// Package main is the entry point for the catgraph CLI binary.
package main

import (
	"os"

	cli "catgraph/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
