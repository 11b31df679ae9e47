package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/forge/internal/cache"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spf13/cobra"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the candidate cache",
		Long: `Manage the candidate cache.

When caching is enabled, a producer's candidate is stored and reused for the
same producer configuration, genre and plot, so repeated rounds only pay for
the evaluators.`,
	}

	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default from config)")
	cmd.AddCommand(newCacheClearCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the cache location and size",
		Args:  cobra.NoArgs,
		RunE:  cacheInfoE,
	})

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the candidate cache",
		Long: `Clear all cached candidates.

The next round re-runs every producer from scratch.`,
		Args: cobra.NoArgs,
		RunE: cacheClearE,
	}
}

func resolveCacheDir() (string, error) {
	dir := cacheDir
	if dir == "" {
		cfg, err := projectconfig.Load(configDir)
		if err != nil {
			return "", err
		}
		dir = cfg.Cache.Dir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return absDir, nil
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	absDir, err := resolveCacheDir()
	if err != nil {
		return err
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir)
	return nil
}

func cacheInfoE(cmd *cobra.Command, args []string) error {
	absDir, err := resolveCacheDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s (%d candidates)\n", absDir, cache.New(absDir).Len())
	return nil
}
