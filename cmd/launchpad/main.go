package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/observability"

	// Register the built-in object types and the default object factory
	_ "github.com/ajitpratap0/launchpad/internal/runnables"
	_ "github.com/ajitpratap0/launchpad/pkg/objects"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = observability.Shutdown(shutdownCtx)
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
