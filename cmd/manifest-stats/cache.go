package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/manifest-stats/internal/duckdb"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the section cache",
	}
	cmd.PersistentFlags().String("cache", "", "DuckDB cache file (default: cache.path from config)")

	cmd.AddCommand(&cobra.Command{
		Use:     "info",
		Short:   "Show the number of cached sections",
		Args:    cobra.NoArgs,
		PreRunE: bindCacheFlag,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(store *duckdb.Store) error {
				n, err := store.SectionCount()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cached sections in %s\n", n, viper.GetString("cache.path"))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "clear",
		Short:   "Remove all cached sections",
		Args:    cobra.NoArgs,
		PreRunE: bindCacheFlag,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(store *duckdb.Store) error {
				if err := store.ClearSections(); err != nil {
					return fmt.Errorf("clear cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", viper.GetString("cache.path"))
				return nil
			})
		},
	})

	return cmd
}

// bindCacheFlag lets --cache override cache.path. Both run and cache declare
// the flag, so the binding is made for the command actually executing.
func bindCacheFlag(cmd *cobra.Command, args []string) error {
	return viper.BindPFlag("cache.path", cmd.Flags().Lookup("cache"))
}

func withCache(fn func(store *duckdb.Store) error) error {
	path := viper.GetString("cache.path")
	if path == "" {
		return errors.New("no cache configured: pass --cache or set cache.path")
	}

	store, err := duckdb.Open(path)
	if err != nil {
		return fmt.Errorf("open section cache: %w", err)
	}
	defer store.Close()

	return fn(store)
}
