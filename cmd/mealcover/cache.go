package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	cachesqlite "github.com/burzuercher/group-meal-planner-sub001/pkg/cache/sqlite"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/keys"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the artifact cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics (sqlite backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := sqliteCache(a)
			if err != nil {
				return err
			}
			stats, err := c.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Entries:     %d\nUnique keys: %d\n", stats.Entries, stats.UniqueKeys)
			return nil
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup <title>",
		Short: "Show the normalized key for a title and its cache entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.openCache()
			if err != nil {
				return err
			}
			key := keys.Normalize(args[0])
			entries, err := c.Entries(context.Background(), key)
			if err != nil {
				return err
			}
			writeCacheEntries(os.Stdout, key, entries)
			return nil
		},
	}

	var olderThan time.Duration
	var all bool
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cache entries older than a duration (sqlite backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return fmt.Errorf("pass --older-than or --all")
			}
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := sqliteCache(a)
			if err != nil {
				return err
			}
			var cutoff time.Time
			if !all {
				cutoff = time.Now().Add(-olderThan)
			}
			n, err := c.Prune(context.Background(), cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d cache entries.\n", n)
			return nil
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete entries created before now minus this duration")
	pruneCmd.Flags().BoolVar(&all, "all", false, "delete every entry")

	cmd.AddCommand(statsCmd, lookupCmd, pruneCmd)
	return cmd
}

func sqliteCache(a *app) (*cachesqlite.Cache, error) {
	c, err := a.openCache()
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*cachesqlite.Cache)
	if !ok {
		return nil, fmt.Errorf("command requires cache.backend %q, configured %q", "sqlite", a.cfg.Cache.Backend)
	}
	return sc, nil
}

func writeCacheEntries(w io.Writer, key string, entries []models.CacheEntry) {
	fmt.Fprintf(w, "Key: %q\n", key)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cache entries.")
		return
	}
	for i, e := range entries {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", marker, e.CreatedAt.Format("2006-01-02 15:04:05"), e.ArtifactURL)
	}
}
