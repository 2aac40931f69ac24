// Command trendscope is a command line client for the trend-analysis dashboard API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/trendscope/internal/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	return cli.Execute(ctx, args)
}
