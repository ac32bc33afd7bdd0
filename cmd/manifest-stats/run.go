package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/manifest-stats/internal/duckdb"
	"github.com/inodb/manifest-stats/internal/report"
)

func newRunCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "run [--manifest] <manifest.json>",
		Short: "Write stats.txt for a manifest",
		Long: `Compute stats for the gff3 and seq_region datasets listed in a manifest and
write them to stats.txt in the manifest's directory. The path written is
printed on stdout.`,
		Example: `  manifest-stats run --manifest /data/batch1/manifest.json
  manifest-stats run --cache ~/.manifest-stats/cache.duckdb manifest.json`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: bindCacheFlag,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" && len(args) == 1 {
				manifestPath = args[0]
			}
			return runStats(cmd.OutOrStdout(), manifestPath)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file path")
	cmd.Flags().String("cache", "", "DuckDB file caching rendered sections (default: cache.path from config)")

	return cmd
}

func runStats(stdout io.Writer, manifestPath string) error {
	if manifestPath == "" {
		return report.ErrNoManifest
	}

	logger, err := newLogger(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	a := report.NewAssembler()
	a.SetLogger(logger)

	if cachePath := viper.GetString("cache.path"); cachePath != "" {
		store, err := duckdb.Open(cachePath)
		if err != nil {
			return fmt.Errorf("open section cache: %w", err)
		}
		defer store.Close()
		a.SetCache(store)
		logger.Debug("using section cache", zap.String("path", cachePath))
	}

	outPath, err := a.Run(manifestPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, outPath)
	return nil
}

// newLogger builds a console logger on stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
