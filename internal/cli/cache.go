package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/internal/config"
	"github.com/matzehuels/crewboard/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cch, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer cch.Close()

			clearer, ok := cch.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled")
				return nil
			}
			count, err := clearer.Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %d cached entries", count)
			cfg, _ := c.Config()
			if cfg.Cache.Backend == config.CacheFile {
				printDetail("Directory: %s", cfg.Cache.Dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != config.CacheFile {
				return fmt.Errorf("cache backend %q has no directory", cfg.Cache.Backend)
			}
			fmt.Fprintln(stdout, cfg.Cache.Dir)
			return nil
		},
	}
}
