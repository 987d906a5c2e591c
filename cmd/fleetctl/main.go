package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fleetdesk/internal/cli"
	"github.com/MrJamesThe3rd/fleetdesk/internal/logging"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(logging.New(os.Stderr, "warn", false, "fleetctl"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.DefaultOpener).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
