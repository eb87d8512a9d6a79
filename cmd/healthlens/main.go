// Command healthlens is a retrieval-augmented assistant for medical reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/healthlens/internal/adapters/driving/cli"
	"github.com/custodia-labs/healthlens/internal/logger"
	"github.com/custodia-labs/healthlens/internal/runtime"
)

func main() {
	if err := runtime.LoadEnv(); err != nil {
		logger.Warn("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
