// Command pairwatch tracks USPTO patent applications: a background poller,
// a local HTTP API, and CLI subcommands over the same services.
package main

import (
	"fmt"
	"os"

	"github.com/uspto-tools/pairwatch/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
