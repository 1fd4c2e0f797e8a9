// Package main implements the datazone-handlers binary, which reconciles
// Amazon DataZone resources through create, read, update, delete and list
// handlers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AltairaLabs/datazone-handlers/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "datazone-handlers: %v\n", err)
		stop()
		os.Exit(1)
	}
}
