package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bundlekeep/bundlekeep/internal/cli"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version, commit, date)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
