package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/echa/config"
	"github.com/echa/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainwatch-io/tzindexer/proto"
	"github.com/chainwatch-io/tzindexer/rpc"
	"github.com/chainwatch-io/tzindexer/store"
	"github.com/chainwatch-io/tzindexer/sync"
)

func init() {
	config.SetDefault("rpc.endpoint", "http://127.0.0.1:8732")
	config.SetDefault("rpc.timeout", 30*time.Second)
	config.SetDefault("db.dsn", "host=localhost user=tzindexer dbname=tzindexer sslmode=disable")
	config.SetDefault("metrics.addr", ":9090")
	config.SetDefault("sync.start_level", int64(0))
}

func main() {
	if err := config.Read("tzindexer", "TZINDEXER"); err != nil {
		log.Warnf("no config file found, using defaults and environment: %v", err)
	}
	log.SetLevel(log.LevelInfo)

	if err := run(); err != nil {
		log.Errorf("exiting: %v", err)
		os.Exit(1)
	}
}

func run() error {
	client, err := rpc.NewHTTPClient(config.GetString("rpc.endpoint"), config.GetDuration("rpc.timeout"))
	if err != nil {
		return err
	}

	st, err := store.Open(config.GetString("db.dsn"))
	if err != nil {
		return err
	}
	defer st.Close()

	registry := proto.NewRegistry()
	controller := sync.NewController(client, st, registry)
	controller.StartLevel = config.GetInt64("sync.start_level")

	if addr := config.GetString("metrics.addr"); addr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: addr, Handler: r}
		go func() {
			log.Infof("metrics listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	errCh := make(chan error, 1)
	go func() { errCh <- controller.Run(ctx) }()

	select {
	case <-sig:
		log.Infof("shutdown signal received, stopping sync controller")
		cancel()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
