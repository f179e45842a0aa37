package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gluesync/internal/api"
	"gluesync/internal/app"
	"gluesync/internal/config"
	"gluesync/internal/middleware"
	"gluesync/internal/source"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen  string
		noKafka bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingest endpoint and the Kafka consumer",
		Long: `Run the sync engine as a long-lived service. Notifications are
accepted on POST /v1/events and, when KAFKA_BROKERS and KAFKA_TOPIC are set,
consumed from Kafka. Both feed a single worker that applies them to Glue in
arrival order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.loadApp(ctx, cmd, func(cfg *config.Config) {
				if listen != "" {
					cfg.ListenAddr = listen
				}
				if noKafka {
					cfg.Kafka.Brokers = nil
				}
			})
			if err != nil {
				return err
			}
			return serve(ctx, a, opts.onListen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides LISTEN_ADDR)")
	cmd.Flags().BoolVar(&noKafka, "no-kafka", false, "Do not start the Kafka consumer")
	return cmd
}

// serve runs the host worker, the HTTP server and, when configured, the
// Kafka source until ctx is canceled or one of them fails.
func serve(ctx context.Context, a *app.App, onListen func(addr string)) error {
	cfg, logger := a.Cfg, a.Logger

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	var kafka *source.KafkaSource
	if cfg.Kafka.Enabled() {
		reader, err := source.NewKafkaReader(source.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			ln.Close() //nolint:errcheck
			return err
		}
		kafka = source.NewKafkaSource(reader, logger.With("component", "kafka"))
	}

	srv := &http.Server{
		Handler: api.NewRouter(api.Deps{
			Submitter: a.Host,
			Metrics:   a.Metrics.Handler(),
			RateLimit: middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				Burst:             cfg.RateLimitBurst,
			},
			Logger: logger.With("component", "api"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Host.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		logger.Info("gluesync listening", "addr", ln.Addr().String())
		if onListen != nil {
			onListen(ln.Addr().String())
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if kafka != nil {
		logger.Info("consuming kafka", "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)
		g.Go(func() error {
			return kafka.Run(gctx, a.Host)
		})
	}

	return g.Wait()
}
