// Command beyond plays, traces and replays games on the rule engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/beyond/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
