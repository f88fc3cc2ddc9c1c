package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stratafi/vault-engine/internal/app"
	"github.com/stratafi/vault-engine/internal/handlers"
	"github.com/stratafi/vault-engine/internal/ledger"
	"github.com/stratafi/vault-engine/internal/lifecycle"
	"github.com/stratafi/vault-engine/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	a, err := app.InitApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := ledger.NewClient(ctx, a.Cfg.Ledger.NetConfigURL)
	if err != nil {
		return err
	}
	defer client.Stop()

	holder := ledger.NewSnapshotHolder()
	poller := ledger.NewPoller(client, holder, a.Cfg.Lp, a.Cfg.Ledger.PollInterval)
	poller.Start()

	settle, err := ledger.NewWalletSettlement(client, a.Cfg.Ledger.Seed, a.Cfg.Lp)
	if err != nil {
		return err
	}

	var store storage.Store
	if a.Cfg.Postgres.Enabled() {
		store = storage.NewGormStore(app.DB)
	} else {
		logrus.Warn("[APP] no database configured, request store is in-memory")
		store = storage.NewMemoryStore()
	}

	manager := lifecycle.NewManager(store, lifecycle.SystemClock{}, settle, holder, a.Cfg.Lp)
	router := handlers.NewRouter(handlers.NewWithdrawalHandler(manager, a.Cfg.Lp))

	srv := &http.Server{
		Addr:    ":" + a.Cfg.HTTPPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.Infof("[APP] serving vault API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logrus.Infof("received %q, shutting down gracefully", sig)
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := poller.Stop(); err != nil {
			logrus.Errorf("[APP] poller stop: %s", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
