package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"codequiz/internal/config"
	"codequiz/internal/database"
	"codequiz/internal/events"
	"codequiz/internal/filesync"
	"codequiz/internal/logger"
	"codequiz/internal/metrics"
	"codequiz/internal/server"
	"codequiz/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CODEQUIZ_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.NewLogger("codequiz", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	origin := uuid.NewString()
	medium, watcher, closeMedium, err := openMedium(ctx, cfg, origin)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer closeMedium()

	bus := events.NewBus(cfg.Storage.KeyPrefix, log, events.WithNotifyHook(m.Notifications.Inc))
	if watcher != nil {
		go func() {
			if err := bus.Listen(ctx, watcher); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("external change watcher stopped")
			}
		}()
	}

	store := services.NewStore(medium, bus, cfg.Storage.KeyPrefix, log, services.WithMetrics(m))
	result, err := store.Bootstrap(ctx, fallbackSource(cfg), cfg.Bootstrap.Timeout)
	if err != nil {
		log.WithError(err).Fatal("bootstrap store")
	}

	var picker filesync.Picker
	if cfg.Sync.Dir != "" {
		dp, err := filesync.NewDirPicker(cfg.Sync.Dir)
		if err != nil {
			log.WithError(err).Fatal("open sync dir")
		}
		picker = dp
	}
	adapter := filesync.New(store, picker,
		filesync.WithDebounce(cfg.Sync.Debounce),
		filesync.WithMetrics(m),
		filesync.WithLogger(log),
		filesync.WithStatusCallback(func(st filesync.Status) {
			log.WithFields(logrus.Fields{"connected": st.Connected, "file": st.FileName}).Info("sync status changed")
		}),
	)
	defer adapter.Close()
	store.Subscribe(adapter.DebouncedSync)

	srv := server.NewServer(store, adapter,
		server.WithMetrics(m, reg),
		server.WithLogger(log),
		server.WithBootstrapResult(result),
	)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr":      cfg.ListenAddr,
		"storage":   cfg.Storage.Type,
		"bootstrap": result.Source,
		"filesync":  adapter.Status().Supported,
	}).Info("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
}

// openMedium connects the configured storage and, for shared media, the
// watcher that reports writes from other processes.
func openMedium(ctx context.Context, cfg *config.Config, origin string) (database.Medium, events.ExternalSource, func(), error) {
	switch cfg.Storage.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, err
		}
		medium := database.NewRedisMedium(client, cfg.Storage.Channel, origin)
		watcher := database.NewRedisWatcher(client, cfg.Storage.Channel, origin)
		return medium, watcher, func() { client.Close() }, nil
	case "postgres":
		db, err := database.NewDB(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		db.Channel = cfg.Storage.Channel
		db.Origin = origin
		watcher := database.NewPostgresWatcher(cfg.Storage.DatabaseURL, cfg.Storage.Channel, origin)
		return db, watcher, func() { db.Close() }, nil
	default:
		return database.NewMemoryMedium(), nil, func() {}, nil
	}
}

func fallbackSource(cfg *config.Config) services.SnapshotSource {
	switch {
	case cfg.Bootstrap.FallbackURL != "":
		return services.HTTPSource{URL: cfg.Bootstrap.FallbackURL}
	case cfg.Bootstrap.FallbackFile != "":
		return services.FileSource{Path: cfg.Bootstrap.FallbackFile}
	default:
		return nil
	}
}
