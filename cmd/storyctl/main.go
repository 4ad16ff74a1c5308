package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/storyloom/internal/storyctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storyctl.New().Execute(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
