package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"learnstyle-workers/internal/common/config"
	"learnstyle-workers/internal/common/database"
	cls "learnstyle-workers/internal/workers/learning/classify-learning-style"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	rcfg := config.RedisConfig{}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached predictions in Redis",
	}
	cmd.PersistentFlags().StringVar(&rcfg.Address, "redis-addr", envOr("REDIS_ADDRESS", "localhost:6379"), "redis address")
	cmd.PersistentFlags().StringVar(&rcfg.Password, "redis-password", os.Getenv("REDIS_PASSWORD"), "redis password")
	cmd.PersistentFlags().IntVar(&rcfg.DB, "redis-db", 0, "redis database")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count cached predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRedis(cmd, rcfg, func(ctx context.Context, rdb *database.RedisClient) error {
				n, err := rdb.CountKeys(ctx, cls.CacheKeyPrefix)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cached predictions\n", n)
				return nil
			})
		},
	}

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Delete every cached prediction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRedis(cmd, rcfg, func(ctx context.Context, rdb *database.RedisClient) error {
				n, err := rdb.DeletePrefix(ctx, cls.CacheKeyPrefix)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached predictions\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(stats, flush)
	return cmd
}

func withRedis(cmd *cobra.Command, rcfg config.RedisConfig, run func(context.Context, *database.RedisClient) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	rdb, err := database.NewRedis(rcfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return err
	}
	return run(ctx, rdb)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
