package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TiwariV18/FinTrack/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Stderr)
	stop()
	os.Exit(code)
}
