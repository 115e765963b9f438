package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/paged-select/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
