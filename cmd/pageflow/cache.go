package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/pkg/ports"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the sequence cache",
	Long:  `Operates on the cache selected by the "cache" section of the config file.`,
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the cached sequence keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, closeCache, err := openCacheAdmin(cmd)
		if err != nil {
			return err
		}
		defer closeCache()

		keys, err := admin.Keys(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached sequence",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, closeCache, err := openCacheAdmin(cmd)
		if err != nil {
			return err
		}
		defer closeCache()

		if err := admin.Purge(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache purged.")
		return nil
	},
}

var cachePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the connection to a remote cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, closeCache, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer closeCache()

		pinger, ok := cache.(ports.Pinger)
		if !ok {
			return errors.New("cache driver has no remote connection to check")
		}
		if err := pinger.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("cache unreachable: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "PONG")
		return nil
	},
}

func openCache(cmd *cobra.Command) (ports.SequenceCache, func(), error) {
	cfg, err := cli.LoadConfig(globalOptions(cmd))
	if err != nil {
		return nil, nil, err
	}
	cache, closer, err := cli.NewCache(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	if cache == nil {
		return nil, nil, errors.New("no cache configured: set cache.driver in the config file")
	}
	release := func() {
		if closer != nil {
			_ = closer()
		}
	}
	return cache, release, nil
}

func openCacheAdmin(cmd *cobra.Command) (ports.CacheAdmin, func(), error) {
	cache, release, err := openCache(cmd)
	if err != nil {
		return nil, nil, err
	}
	admin, ok := cache.(ports.CacheAdmin)
	if !ok {
		release()
		return nil, nil, errors.New("cache driver cannot list or purge entries")
	}
	return admin, release, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheKeysCmd, cachePurgeCmd, cachePingCmd)
}
