package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"
	"catalog/internal/seed"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs: configuration and a logger.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Product catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})
			return nil
		},
	}
	cmd.AddCommand(newServeCmd(e))
	cmd.AddCommand(newMigrateCmd(e))
	cmd.AddCommand(newSeedCmd(e))
	cmd.AddCommand(newPurgeCmd(e))
	cmd.AddCommand(newWatchCmd(e))
	return cmd
}

// openDB connects and migrates. The returned func closes the pool.
func (e *env) openDB() (*gorm.DB, func(), error) {
	db, err := database.Open(e.cfg.DatabaseDriver, e.cfg.DatabaseDSN, e.log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := database.Migrate(db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return db, closeDB, nil
}

// events connects to RabbitMQ when configured. The returned publisher is nil
// when events are disabled or the broker is unreachable.
func (e *env) events() (services.EventPublisher, func()) {
	if e.cfg.RabbitMQURL == "" {
		e.log.Info().Msg("RABBITMQ_URL not set, product events disabled")
		return nil, func() {}
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: e.cfg.RabbitMQURL, Exchange: e.cfg.RabbitMQExchange}, e.log)
	if err != nil {
		e.log.Warn().Err(err).Msg("RabbitMQ unavailable, product events disabled")
		return nil, func() {}
	}
	return client, func() {
		if err := client.Close(); err != nil {
			e.log.Error().Err(err).Msg("failed to close RabbitMQ client")
		}
	}
}

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			events, closeEvents := e.events()
			defer closeEvents()

			a := app.New(app.Deps{DB: db, Config: e.cfg, Events: events, Log: e.log, AccessLog: true})

			go func() {
				e.log.Info().Str("addr", e.cfg.AppPort).Msg("starting server")
				if err := a.Fiber.Listen(e.cfg.AppPort); err != nil {
					e.log.Error().Err(err).Msg("server stopped")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			e.log.Info().Msg("shutting down server")

			if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
				e.log.Error().Err(err).Msg("error during shutdown")
			}
			e.log.Info().Msg("server gracefully stopped")
			return nil
		},
	}
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			closeDB()
			e.log.Info().Msg("migration completed")
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace every product with the fixtures of a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			events, closeEvents := e.events()
			defer closeEvents()

			a := app.New(app.Deps{DB: db, Config: e.cfg, Events: events, Log: e.log})
			res, err := seed.NewSeeder(a.Products, a.Auth, a.Users, e.log).Run(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d products, created %d\n", res.Purged, res.Created)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")
	return cmd
}

func newPurgeCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every product",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete every product without --yes")
			}
			db, closeDB, err := e.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			events, closeEvents := e.events()
			defer closeEvents()

			a := app.New(app.Deps{DB: db, Config: e.cfg, Events: events, Log: e.log})
			n, err := a.Products.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d products\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newWatchCmd(e *env) *cobra.Command {
	var queue, binding string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log product events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is not set")
			}
			client, err := rabbitmq.NewClient(rabbitmq.Config{URL: e.cfg.RabbitMQURL, Exchange: e.cfg.RabbitMQExchange}, e.log)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				client.Close()
			}()

			return client.ConsumeProductEvents(queue, binding, func(msg amqp.Delivery) error {
				e.log.Info().
					Str("routing_key", msg.RoutingKey).
					Time("published", msg.Timestamp).
					RawJSON("event", msg.Body).
					Msg("product event")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "durable queue name (empty for a temporary queue)")
	cmd.Flags().StringVar(&binding, "binding", "product.#", "routing key pattern")
	return cmd
}
