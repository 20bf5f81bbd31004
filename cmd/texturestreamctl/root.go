// Package main implements texturestreamctl, a small demo CLI that
// exercises the asset-loading core end to end against a directory-backed
// Archive: preload a directory through the loader pool into the texture
// cache, or run a long-lived demo that reports pool/cache stats on a
// schedule. A package var rootCmd holds the command tree, an init() wires
// subcommands onto it, and setupCommand builds a logger plus a
// signal-cancellable context shared by every subcommand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"texturestream/pkg/config"
	"texturestream/pkg/helper/log"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "texturestreamctl",
		Short: "texturestreamctl drives the asset-loading core against a directory archive",
		Long:  "A demo CLI for the asynchronous asset-loading core: preload a directory of textures through the file loader pool into the texture cache, or run a long-lived demo server that reports pool and cache stats on a schedule.",
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cfg = config.NewDefaultConfig()
	cfg.AddFlagsToCommand(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPreloadCmd())
	rootCmd.AddCommand(newServeCmd())
}

// setupCommand creates a logger at the configured level and a context
// that cancels on SIGINT/SIGTERM.
func setupCommand(ctx context.Context) (log.Logger, context.Context, context.CancelFunc) {
	logger := log.NewLoggerWithLevel(log.ParseLevel(cfg.LogLevel))
	log.SetGlobalLogger(logger)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("texturestreamctl: received termination signal, shutting down")
			cancel()
		case <-ctx.Done():
			return
		}
	}()

	return logger, ctx, cancel
}
