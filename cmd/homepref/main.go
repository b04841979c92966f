package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/homepref/internal/profile"
	"github.com/hrygo/homepref/internal/version"
	"github.com/hrygo/homepref/server"
	"github.com/hrygo/homepref/store"
	"github.com/hrygo/homepref/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "homepref",
		Short: "A service for managing user housing preferences (budget, rooms, size and neighborhood).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile := &profile.Profile{
				Mode:        viper.GetString("mode"),
				Addr:        viper.GetString("addr"),
				Port:        viper.GetInt("port"),
				Data:        viper.GetString("data"),
				Driver:      viper.GetString("driver"),
				DSN:         viper.GetString("dsn"),
				CORSOrigins: viper.GetStringSlice("cors-origins"),
				RateLimit:   viper.GetFloat64("rate-limit"),
				RateBurst:   viper.GetInt("rate-burst"),
				Version:     version.GetCurrentVersion(viper.GetString("mode")),
			}
			// Deployment variables (PORT, DATABASE_URL, MYSQL_*) win over flags.
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), instanceProfile)
		},
	}
)

func run(ctx context.Context, instanceProfile *profile.Profile) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		slog.Error("failed to create db driver", slog.String("error", err.Error()))
		return err
	}

	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		slog.Error("failed to migrate", slog.String("error", err.Error()))
		storeInstance.Close()
		return err
	}

	s, err := server.NewServer(ctx, instanceProfile, storeInstance)
	if err != nil {
		slog.Error("failed to create server", slog.String("error", err.Error()))
		storeInstance.Close()
		return err
	}

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	printGreetings(instanceProfile)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(ctx)
	}()

	select {
	case sig := <-c:
		slog.Info("received signal", slog.String("signal", sig.String()))
		s.Shutdown(ctx)
		return nil
	case err := <-errCh:
		storeInstance.Close()
		return err
	}
}

func init() {
	viper.SetDefault("mode", "prod")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8080)
	viper.SetDefault("rate-burst", 20)

	rootCmd.PersistentFlags().String("mode", "prod", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory for the default sqlite database")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver: sqlite, postgres or mysql")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().StringSlice("cors-origins", nil, "allowed CORS origins (defaults to the UI deployments)")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "requests per second allowed per client IP, 0 disables")
	rootCmd.PersistentFlags().Int("rate-burst", 20, "burst size for the per-IP rate limit")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "cors-origins", "rate-limit", "rate-burst"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("preferences")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("homepref %s started successfully!\n", profile.Version)
	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		fmt.Fprintf(os.Stderr, "Database driver: %s\n", profile.Driver)
	}
	if len(profile.Addr) == 0 {
		fmt.Printf("Listening on port %d\n", profile.Port)
	} else {
		fmt.Printf("Listening on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
