package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"relocation/internal/env"
	"relocation/internal/logger"
	"relocation/internal/observability"
	"relocation/internal/resolver"
	"relocation/internal/storage"
	"relocation/pkg/fallback"
	"relocation/pkg/jobsapi"
	"relocation/pkg/kafkaclient"
)

// app holds everything a resolve run needs. close releases it in reverse.
type app struct {
	store    storage.Store
	client   *jobsapi.Client
	table    *fallback.Table
	producer *kafkaclient.Producer
	metrics  *http.Server
	resolver *resolver.Resolver
}

func storeURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("store"); u != "" {
		return u
	}
	return env.GetEnv("JOBSITES_STORE", env.DefaultStore)
}

func openStore(ctx context.Context, cmd *cobra.Command) (storage.Store, error) {
	u := storeURL(cmd)
	logger.GetLogger().WithField("store", u).Debug("Opening store")
	s, err := storage.Open(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func newApp(ctx context.Context, cmd *cobra.Command, cfg env.Config, onRefresh resolver.RefreshFunc) (*app, error) {
	log := logger.GetLogger()
	a := &app{}

	store, err := openStore(ctx, cmd)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.client = jobsapi.NewClient(cfg.APIURL,
		jobsapi.WithTimeout(cfg.APITimeout),
		jobsapi.WithLanguage(cfg.Language),
	)

	a.table = fallback.Bundled()
	if cfg.FallbackFile != "" {
		if err := a.table.WatchFile(cfg.FallbackFile); err != nil {
			a.close()
			return nil, fmt.Errorf("load fallback table: %w", err)
		}
		log.WithField("path", cfg.FallbackFile).Info("Using fallback table from file")
	}

	opts := []resolver.Option{resolver.WithOnRefresh(onRefresh)}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := observability.NewMetrics(reg)
		if err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, resolver.WithMetrics(m))
		a.metrics = &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Serving metrics")
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server: %v", err)
			}
		}()
	}

	if cfg.KafkaBroker != "" {
		p, err := kafkaclient.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, false)
		if err != nil {
			a.close()
			return nil, err
		}
		a.producer = p
		opts = append(opts, resolver.WithPublisher(p))
		log.WithField("topic", cfg.KafkaTopic).Info("Publishing lookup events")
	}

	a.resolver = resolver.New(a.store, a.client, a.table, opts...)
	return a, nil
}

func (a *app) close() {
	log := logger.GetLogger()
	if a.resolver != nil {
		a.resolver.Close()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			log.Warnf("Closing producer: %v", err)
		}
	}
	if a.table != nil {
		a.table.Close()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warnf("Closing store: %v", err)
		}
	}
}
