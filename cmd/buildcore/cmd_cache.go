package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexxo-build/nexxocore/engine/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Persistent build cache inspection",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print hit/miss counters and entry count for the configured cache directory",
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := cache.OpenCache(cfg.Cache.ToCacheConfig())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	ctx := cmd.Context()
	stats := c.GetStats(ctx)
	fmt.Printf("entries=%d hits=%d misses=%d hit_rate=%.2f%% size_bytes=%d\n",
		stats.TotalEntries, stats.Hits, stats.Misses, stats.HitRate, stats.SizeBytes)
	return nil
}
