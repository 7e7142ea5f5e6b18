// Package main is the entry point for the ldconfig tool.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"

	"github.com/lu-zero/ldconfig/cmd/ldconfig/commands"
	"github.com/lu-zero/ldconfig/internal/app"
	"github.com/lu-zero/ldconfig/internal/core/domain"
	_ "github.com/lu-zero/ldconfig/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available if initialization failed.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	cli := commands.New(components.App)

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrCachesDiffer) {
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
