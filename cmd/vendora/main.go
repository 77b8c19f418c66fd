package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vendora/vendora/internal/profile"
	"github.com/vendora/vendora/server"
	"github.com/vendora/vendora/internal/observability"
	"github.com/vendora/vendora/store"
	"github.com/vendora/vendora/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "vendora",
	Short: "A marketplace server with an in-process query cache",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:                 viper.GetString("mode"),
			Addr:                 viper.GetString("addr"),
			Port:                 viper.GetInt("port"),
			Data:                 viper.GetString("data"),
			Driver:               viper.GetString("driver"),
			DSN:                  viper.GetString("dsn"),
			InstanceURL:          viper.GetString("instance-url"),
			CacheCapacity:        viper.GetInt("cache-capacity"),
			CacheCleanupInterval: viper.GetDuration("cache-cleanup-interval"),
			Version:              version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("invalid profile: %w", err)
		}

		slog.SetDefault(observability.NewLogger(instanceProfile.Mode))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				slog.Error("server error", "error", err)
			}
		case <-ctx.Done():
			slog.Info("shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your vendora instance")
	rootCmd.PersistentFlags().Int("cache-capacity", 1000, "maximum number of query cache entries")
	rootCmd.PersistentFlags().Duration("cache-cleanup-interval", time.Minute, "period of the cache expiry sweep")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("vendora")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
