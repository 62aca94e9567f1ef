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

// Rise Scout — Profile Rescore Command
//
// Standalone CLI tool that re-applies profile-completeness signals to
// every stored contact. Intended for runs after a weight table change.
//
// Usage:
//
//	go run ./cmd/rescore/ [--page-size 200] [--pages-per-second 2]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/redis/go-redis/v9"

	"github.com/risehq/scout/internal/config"
	"github.com/risehq/scout/internal/refresh"
	"github.com/risehq/scout/internal/rescore"
	"github.com/risehq/scout/internal/scoring"
	"github.com/risehq/scout/internal/store/postgres"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	pageSizeFlag := flag.Int("page-size", rescore.DefaultPageSize, "Contacts per save batch")
	rateFlag := flag.Float64("pages-per-second", 2, "Write pacing against the live store")
	flag.Parse()

	if *pageSizeFlag <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --page-size must be positive\n\n")
		flag.Usage()
		os.Exit(1)
	}

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

	contactStore, err := postgres.NewContactStore(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise contact store", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	flags := refresh.NewFlagStore(rdb)
	if err := flags.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	// --- Run Rescore ---
	runner := rescore.NewRunner(rescore.RunnerConfig{
		Store:          contactStore,
		Engine:         scoring.NewEngine(weights),
		Flags:          flags,
		PageSize:       *pageSizeFlag,
		PagesPerSecond: *rateFlag,
	})

	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("rescore failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	slog.Info("rescore complete",
		"processed", result.Processed,
		"scored", result.Scored,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
}
