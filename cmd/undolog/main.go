// Command undolog is a durable per-model undo/redo log.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/undolog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
