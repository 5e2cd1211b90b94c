// Command bnmodel builds the structure of a multi-network Bayesian model from a
// YAML model file, audits it, and answers GraphQL inspection queries about it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
