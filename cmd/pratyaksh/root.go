// pratyaksh is the operator CLI: run a verification locally, add media to
// the history archive, apply migrations.
//
// Usage:
//
//	pratyaksh verify FILE [--lat X --lon Y]
//	pratyaksh archive add FILE --source-url URL [--first-seen RFC3339]
//	pratyaksh migrate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"pratyaksh/internal/config"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/wiring"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pratyaksh",
	Short: "Media trust verification for disaster imagery",
	Long:  "Pratyaksh fuses AI-origin, tamper, satellite and reuse evidence\ninto a single verdict for a submitted image.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.Version = version
}

// loadApp reads config, sets up logging on stderr and builds the pipeline.
func loadApp(ctx context.Context) (*wiring.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, os.Stderr)
	return wiring.Build(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
