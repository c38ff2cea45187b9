package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quangdm/fleetdeck/internal/api"
	"github.com/quangdm/fleetdeck/internal/bot"
	"github.com/quangdm/fleetdeck/internal/command"
	"github.com/quangdm/fleetdeck/internal/config"
	"github.com/quangdm/fleetdeck/internal/discovery"
	"github.com/quangdm/fleetdeck/internal/models"
	"github.com/quangdm/fleetdeck/internal/provider/sim"
	"github.com/quangdm/fleetdeck/internal/session"
	"github.com/quangdm/fleetdeck/internal/storage"
	"github.com/quangdm/fleetdeck/internal/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:   "fleetdeck",
		Short: "Chat-operated multi-region fleet console engine",
	}
	root.AddCommand(serveCmd(), seedCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine: consume chat events, serve metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS URL of the event boundary")
	f.StringVar(&cfg.DefaultRegion, "default-region", cfg.DefaultRegion, "region assumed for legacy instance refs")
	f.StringSliceVar(&cfg.AuthorizedCallers, "authorized", cfg.AuthorizedCallers, "caller ids allowed to mutate instances")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "session job pool size")
	f.IntVar(&cfg.FanOut, "fanout", cfg.FanOut, "max simultaneous region queries")
	f.DurationVar(&cfg.RegionTimeout, "region-timeout", cfg.RegionTimeout, "per-region call timeout")
	f.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "fleet snapshot TTL")
	f.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "instances per page")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address")
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "simulator Badger DB path")
	f.BoolVar(&cfg.InMemory, "inmem", cfg.InMemory, "keep simulator state in memory only")

	return cmd
}

func serve(cfg config.Config) error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownTracing, err := telemetry.Setup(context.Background())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	simClient := sim.New(store, log)
	if cfg.InMemory {
		// Fresh process, fresh dataset; keeps the engine exercisable with
		// no credentials at all.
		if err := simClient.Seed(context.Background(), sim.DefaultSeed()); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	// The simulator stands in as the provider until a real cloud client
	// is wired; it then moves to Options.Fallback.
	disc := discovery.New(simClient, log, discovery.Options{
		FanOut:        cfg.FanOut,
		RegionTimeout: cfg.RegionTimeout,
		WellKnown:     cfg.WellKnownRegions,
	})
	cache := discovery.NewCache(disc, cfg.CacheTTL, log)
	router := command.NewRouter(simClient, cfg.AuthorizedCallers, log)

	nc, err := bot.Connect(cfg.NATSURL, log)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	views := bot.NewViews(cfg.PageSize, cfg.DefaultRegion)
	renderer := bot.NewNATSRenderer(nc, log)

	tracker := session.NewTracker(
		func(ctx context.Context) (*models.FleetSnapshot, error) {
			return cache.GetOrRefresh(ctx), nil
		},
		func(ctx context.Context, surfaceID string, snap *models.FleetSnapshot) error {
			return renderer.Update(ctx, surfaceID, views.FleetView(snap, 1))
		},
		func(ctx context.Context, surfaceID, message string) {
			if err := renderer.Update(ctx, surfaceID, views.ErrorView(message)); err != nil {
				log.Warn("error view render failed", zap.Error(err))
			}
		},
		cfg.Workers, log)
	tracker.Start()

	handler := bot.NewHandler(disc, cache, tracker, router, renderer, views, cfg.DefaultRegion, log)
	sub, err := handler.Subscribe(nc)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	metricsMux := http.NewServeMux()
	api.RegisterMetrics(metricsMux)
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("metrics server", zap.Error(err))
		}
	}()

	log.Info("fleetdeck serving",
		zap.String("nats_url", cfg.NATSURL),
		zap.String("default_region", cfg.DefaultRegion),
		zap.Int("authorized_callers", len(cfg.AuthorizedCallers)))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutdown initiated")

	_ = sub.Drain()
	tracker.Stop()
	_ = nc.Drain()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warn("tracing shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}

func openStore(cfg config.Config) (storage.Store, error) {
	if cfg.InMemory {
		return storage.NewInMemoryStore()
	}
	return storage.NewBadgerStore(cfg.DBPath)
}

func seedCmd() *cobra.Command {
	var (
		dbPath string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load instances from a JSON file into the simulator store",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var instances []models.Instance
			if err := json.Unmarshal(data, &instances); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			store, err := storage.NewBadgerStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			for _, inst := range instances {
				if err := store.PutInstance(ctx, inst); err != nil {
					return fmt.Errorf("put %s: %w", inst.ID, err)
				}
			}
			fmt.Printf("seeded %d instances into %s\n", len(instances), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "./data/badger", "Badger DB path")
	cmd.Flags().StringVar(&file, "file", "seed.json", "JSON file of instances")
	return cmd
}
