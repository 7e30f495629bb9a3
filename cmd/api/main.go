package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ys4e/pancake/internal/account"
	"github.com/ys4e/pancake/internal/account/repo"
	"github.com/ys4e/pancake/internal/combo"
	"github.com/ys4e/pancake/internal/credential"
	"github.com/ys4e/pancake/internal/geo"
	"github.com/ys4e/pancake/internal/metrics"
	"github.com/ys4e/pancake/internal/router"
	"github.com/ys4e/pancake/internal/shield"
	"github.com/ys4e/pancake/pkg/database"
	"github.com/ys4e/pancake/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting pancake")

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	key, err := credential.PrivateKey()
	if err != nil {
		sugar.Fatalf("load private key: %v", err)
	}

	geoCfg := geo.ConfigFromEnv()
	resolver, err := geo.Open(geoCfg.DBPath)
	if err != nil {
		sugar.Warnw("geoip database unavailable; every country resolves to "+geo.Unknown, "path", geoCfg.DBPath, "err", err)
		resolver = &geo.Resolver{}
	}
	defer resolver.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	accounts := repo.NewAccountRepo(db)
	hasher := credential.BcryptHasher{}
	shieldSvc := shield.NewService(accounts, credential.NewCodec(key), hasher, resolver, sugar.Named("shield"))
	comboSvc := combo.NewService(shieldSvc, key, combo.ConfigFromEnv())
	accountSvc := account.NewService(accounts, hasher, sugar.Named("account"))

	handler := router.RegisterRoutes(sugar.Named("http"), router.ConfigFromEnv(), router.Handlers{
		Shield:  shield.NewHandler(shieldSvc, sugar.Named("shield")),
		Combo:   combo.NewHandler(comboSvc, sugar.Named("combo")),
		Account: account.NewHandler(accountSvc, sugar.Named("account")),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running; press Ctrl+C to stop", "addr", addr)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
