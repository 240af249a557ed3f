// SPDX-License-Identifier: Unlicense OR MIT

// Command loomdemo runs a headless counter application on the loom run
// loop. The counter is incremented on every painted frame and persisted
// between runs.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
