package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fentz26/ticgit/internal/dispatch"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdin, os.Stdout, os.Stderr).command().ExecuteContext(ctx)
	stop()
	os.Exit(dispatch.ExitStatus(err, os.Stderr))
}
