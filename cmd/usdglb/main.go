// usdglb - USD scene to GLB converter
// Converts the meshes of a USD scene into a single binary glTF file.
//
// Commands:
//
//	convert <in> <out.glb>  - Convert a scene (--watch to reconvert on change)
//	tree <in>               - Print the prim hierarchy with properties
//	stats <in>              - Count prims by kind and summarize meshes
//	export <in>             - Print the scene as text
//	inspect <file.glb>      - Read a GLB back and list its meshes
//	config init [path]      - Write the effective config to a file
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/usdglb/internal/config"
	"github.com/taigrr/usdglb/internal/logger"
	"github.com/taigrr/usdglb/pkg/usd"
	_ "github.com/taigrr/usdglb/pkg/usd/manifest"
)

// app holds what every command needs once flags are parsed.
type app struct {
	configPath string
	overrides  config.Overrides

	cfg    *config.Config
	loader *usd.Loader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "usdglb",
		Short:         "Convert USD scenes to binary glTF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (YAML or TOML)")
	flags.StringVar(&a.overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.overrides.LogFile, "log-file", "", "Also log to this file (rotated)")
	flags.StringVar(&a.overrides.Source, "source", "", fmt.Sprintf("Scene source %v", usd.Sources()))
	flags.IntVar(&a.overrides.Workers, "workers", 0, "Meshes to triangulate in parallel (default one per CPU)")

	root.AddCommand(
		a.convertCmd(),
		a.treeCmd(),
		a.statsCmd(),
		a.exportCmd(),
		a.inspectCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}

	src, err := usd.Lookup(cfg.Source.Name)
	if err != nil {
		return err
	}
	a.loader = usd.NewLoader(src,
		usd.WithLogger(logger.Log.Named("usd")),
		usd.WithTempDir(cfg.Source.TempDir),
	)
	logger.Debug("configured",
		zap.String("source", cfg.Source.Name),
		zap.Int("workers", cfg.Convert.Workers),
	)
	return nil
}
