package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	server "recotrip/internal/adapters/http_server"
	"recotrip/internal/adapters/observability"
	"recotrip/internal/adapters/overpass"
	"recotrip/internal/adapters/recommend"
	redisad "recotrip/internal/adapters/redis"
	"recotrip/internal/app"
	"recotrip/internal/domain"
	"recotrip/internal/shared"
	"recotrip/internal/storage/memory"
	mysqlrepo "recotrip/internal/storage/mysql"
	"recotrip/internal/storage/sqlite"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

	kv, closeKV, err := openStore(ctx, cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("open store failed")
	}
	defer closeKV()
	log.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	var opts []app.Option
	if cfg.SingleWriter {
		opts = append(opts, app.WithSingleWriter())
	}
	h := &server.Handlers{
		Favorites: app.NewFavoriteStore(kv, opts...),
		Reviews:   app.NewReviewStore(kv, opts...),
	}

	if cfg.RecommendURL != "" {
		recs, err := recommend.New(cfg.RecommendURL, cfg.RequestRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize recommendation client")
		}
		var cache domain.Cache
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unavailable; recommendation cache disabled")
		} else {
			cache = redisad.New(rdb)
		}
		h.Nearby = app.NewNearbyService(recs, overpass.New(cfg.OverpassURL, overpass.Timeout), cache, cfg.CacheTTL)
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// openStore returns the key-value backend named by STORE_BACKEND and a func releasing it.
func openStore(ctx context.Context, cfg shared.Config, rdb *goredis.Client) (domain.KeyValueStore, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case shared.BackendMemory:
		log.Warn().Msg("memory store: favorites and reviews will not survive a restart")
		return memory.New(), noop, nil

	case shared.BackendSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { _ = st.Close() }, nil

	case shared.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil

	case shared.BackendRedis:
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return redisad.NewStore(rdb), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
