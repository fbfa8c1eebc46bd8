package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alekostrader/alkadmin/internal/licensectl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
