// Copyright (c) 2026 Rise Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Rise Scout — Contact Engagement Service
//
// Entry point for the scout service. It:
//  1. Loads configuration and the signal weight table
//  2. Connects to PostgreSQL and Redis
//  3. Consumes contact-change, interaction and listing-event queues
//  4. Runs the periodic score decay sweep
//  5. Refreshes agent summary cards for flagged agents
//  6. Serves health and metrics endpoints
//  7. Handles graceful shutdown on SIGTERM/SIGINT
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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/risehq/scout/internal/cards"
	"github.com/risehq/scout/internal/config"
	"github.com/risehq/scout/internal/debounce"
	"github.com/risehq/scout/internal/enrich"
	"github.com/risehq/scout/internal/ingest"
	"github.com/risehq/scout/internal/match"
	"github.com/risehq/scout/internal/metrics"
	"github.com/risehq/scout/internal/queue"
	"github.com/risehq/scout/internal/refresh"
	"github.com/risehq/scout/internal/scoring"
	"github.com/risehq/scout/internal/store/postgres"
	"github.com/risehq/scout/internal/sweep"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting scout engagement service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	weights, err := scoring.LoadWeights(cfg.WeightsPath)
	if err != nil {
		slog.Error("failed to load signal weights", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"signals", len(weights.Signals),
		"score_cap", weights.ScoreCap,
		"decay_interval", cfg.DecayInterval,
		"card_refresh_interval", cfg.CardRefreshInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		slog.Error("invalid DATABASE_URL", "error", err)
		os.Exit(1)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	flags := refresh.NewFlagStore(rdb)
	if err := flags.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Debounce Guard ---
	guard := debounce.NewGuard(rdb)

	// --- Stores (Postgres) ---
	contactStore, err := postgres.NewContactStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise contact store", "error", err)
		os.Exit(1)
	}
	cardStore, err := postgres.NewCardStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise card store", "error", err)
		os.Exit(1)
	}
	searchStore := postgres.NewSearchStore(pgPool)

	// --- Enrichment Clients ---
	// Both are optional: without an embedding endpoint contacts simply
	// carry no vector, and cards ship without insights.
	var embedder ingest.Embedder
	var insights cards.InsightGenerator
	if cfg.Enrichment.EmbeddingURL != "" || cfg.Enrichment.InsightURL != "" {
		httpClient := http.DefaultClient
		if cfg.Enrichment.TokenURL != "" {
			creds := &clientcredentials.Config{
				ClientID:     cfg.Enrichment.ClientID,
				ClientSecret: cfg.Enrichment.ClientSecret,
				TokenURL:     cfg.Enrichment.TokenURL,
			}
			httpClient = creds.Client(ctx)
		}
		if cfg.Enrichment.EmbeddingURL != "" {
			embedder = enrich.NewEmbeddingClient(httpClient, cfg.Enrichment.EmbeddingURL, cfg.Enrichment.EmbeddingModel)
		}
		if cfg.Enrichment.InsightURL != "" {
			insights = enrich.NewInsightClient(httpClient, cfg.Enrichment.InsightURL, cfg.Enrichment.InsightModel)
		}
	} else {
		slog.Warn("no enrichment endpoints configured, embeddings and insights disabled")
	}

	// --- Services ---
	engine := scoring.NewEngine(weights)
	decayCalc := scoring.NewDecayCalculator(weights)

	ingestSvc := ingest.NewService(contactStore, engine, embedder, flags)
	matchSvc := match.NewService(contactStore, searchStore, engine, flags)
	cardSvc := cards.NewService(contactStore, cardStore, insights, flags)
	sweeper := sweep.NewSweeper(contactStore, decayCalc)

	// --- Queue Consumer ---
	consumer := queue.NewConsumer(queue.Config{
		Redis: rdb,
		Guard: guard,
		Handlers: map[string]queue.Handler{
			cfg.Queues.ContactChanges: ingestSvc.HandleContactChange,
			cfg.Queues.Interactions:   ingestSvc.HandleInteraction,
			cfg.Queues.ListingEvents: func(ctx context.Context, payload []byte) error {
				ev, err := ingest.ParseListingEvent(payload)
				if err != nil {
					return err
				}
				return matchSvc.HandleListingEvent(ctx, ev)
			},
		},
		Shards: cfg.Shards,
	})
	consumer.Start(ctx)
	slog.Info("queue consumer started",
		"queues", []string{cfg.Queues.ContactChanges, cfg.Queues.Interactions, cfg.Queues.ListingEvents},
		"shards", cfg.Shards,
	)

	// --- Decay Sweep Loop ---
	go func() {
		ticker := time.NewTicker(cfg.DecayInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				decayed, err := sweeper.Run(ctx)
				if err != nil {
					slog.Error("decay sweep failed", "error", err)
					continue
				}
				metrics.ContactsDecayed.Add(float64(decayed))
			}
		}
	}()

	// --- Card Refresh Loop ---
	go func() {
		ticker := time.NewTicker(cfg.CardRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshed, err := cardSvc.RefreshFlaggedAgents(ctx)
				if err != nil {
					slog.Error("card refresh failed", "error", err)
					continue
				}
				if refreshed > 0 {
					metrics.CardsRefreshed.Add(float64(refreshed))
				}
			}
		}
	}()

	// --- Health + Metrics Server ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := flags.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := pgPool.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel() // Stop background loops

		consumer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
		pgPool.Close()
	}()

	slog.Info("scout service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("scout service stopped")
}
