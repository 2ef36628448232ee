package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userhub/internal/account"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	httpx "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/redisclient"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/geocoder89/userhub/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// storage
	var store account.Store
	var ping func() error

	switch cfg.UsersStore {
	case "memory":
		log.Warn("using in-memory user store, users are lost on restart")
		store = memory.NewUsersRepo()
	default:
		pool, err := db.NewPool(context.Background(), db.PoolConfig{
			URL:             cfg.DBURL,
			MaxConns:        cfg.DBMaxConns,
			ApplicationName: cfg.ServiceName,
		})
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = postgres.NewUsersRepo(pool, prom, cfg.DBAcquireTimeout)
		ping = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(ctx)
		}
	}

	accounts, err := account.NewService(store, security.NewHasher(security.DefaultParams), log)
	if err != nil {
		log.Error("account service init failed", "err", err)
		os.Exit(1)
	}

	sessions, err := session.New(session.Options{
		Secret:     []byte(cfg.SecretKey),
		CookieName: cfg.CookieName,
		Domain:     cfg.CookieDomain,
		MaxAge:     cfg.SessionTTL,
		Secure:     cfg.CookieSecure,
	})
	if err != nil {
		log.Error("session store init failed", "err", err)
		os.Exit(1)
	}

	// rate limit counters are shared through redis when configured
	var rateStore middlewares.WindowStore = middlewares.NewMemoryWindowStore()
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		ctx, cancel := config.WithTimeout(2 * time.Second)
		if err := rdb.Ping(ctx); err != nil {
			log.Warn("redis unreachable, rate limiter will fail open until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		rateStore = rdb
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Accounts:  accounts,
		Sessions:  sessions,
		Tokens:    auth.NewManager(cfg.SecretKey, cfg.AccessTTL()),
		Prom:      prom,
		Registry:  reg,
		Ping:      ping,
		RateStore: rateStore,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "users_store", cfg.UsersStore)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
