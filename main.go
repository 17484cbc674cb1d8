package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mahirjain10/imagsharp/internal/cli"
	log "github.com/sirupsen/logrus"
)

// Overridden at build time with -ldflags "-X main.version=1.2.0".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand(version).ExecuteContext(ctx)
	stop()
	if err != nil {
		if cli.IsInputError(err) {
			log.Error(err)
		} else {
			log.Errorf("imagsharp: %v", err)
		}
		os.Exit(1)
	}
}
