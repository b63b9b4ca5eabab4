// Command server runs the CUI inspection HTTP API.
//
// Configuration is read from the environment (and an optional CONFIG_PATH
// YAML file); see internal/config.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/genefryaustin-source/cui-inspector/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
