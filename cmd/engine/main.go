// Command engine is the entry point for the arbitrage signal engine. It
// loads configuration, validates it, wires dependencies, and either runs the
// engine loop or simply checks the configuration, depending on the
// subcommand.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
