package main

import (
	"fmt"
	"os"

	"github.com/rootfleet/waitlist/internal/cli"
)

func main() {
	root := cli.NewRootCommand(cli.OpenFromEnv, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
