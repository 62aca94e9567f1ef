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

// Package rescore re-evaluates profile-completeness signals across the
// full contact population. Intended for one-off runs after a weight
// table change, so contacts scored under the old table pick up the new
// profile weights without waiting for their next inbound event.
package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/dispatch"
	"github.com/risehq/scout/internal/scoring"
)

// DefaultPageSize bounds how many contacts one save batch covers.
const DefaultPageSize = 200

// ContactStore is the persistence surface the runner needs.
type ContactStore interface {
	PaginateAll(ctx context.Context, pageSize int) ([]*contact.Contact, error)
	Save(ctx context.Context, c *contact.Contact) error
}

// Result summarises a completed rescore run.
type Result struct {
	Processed int
	Scored    int
	Skipped   int
	Errors    int
	Elapsed   time.Duration
}

// Runner performs a full-population profile rescore.
type Runner struct {
	store    ContactStore
	engine   *scoring.Engine
	flags    dispatch.FlagSink
	pageSize int
	limiter  *rate.Limiter
}

// RunnerConfig holds dependencies for the rescore runner.
type RunnerConfig struct {
	Store    ContactStore
	Engine   *scoring.Engine
	Flags    dispatch.FlagSink
	PageSize int
	// PagesPerSecond throttles writes against the live store. Zero
	// means the default of two pages per second.
	PagesPerSecond float64
}

// NewRunner creates a rescore runner.
func NewRunner(cfg RunnerConfig) *Runner {
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	pps := cfg.PagesPerSecond
	if pps == 0 {
		pps = 2
	}
	return &Runner{
		store:    cfg.Store,
		engine:   cfg.Engine,
		flags:    cfg.Flags,
		pageSize: pageSize,
		limiter:  rate.NewLimiter(rate.Limit(pps), 1),
	}
}

// Run rescores every contact. Contacts whose profile yields no delta are
// left untouched. Individual save failures are counted and skipped so a
// single contended row cannot abort the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	contacts, err := r.store.PaginateAll(ctx, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("paginate contacts for rescore: %w", err)
	}

	slog.Info("starting profile rescore", "contacts", len(contacts))

	result := &Result{}
	for i := 0; i < len(contacts); i += r.pageSize {
		end := min(i+r.pageSize, len(contacts))
		page := contacts[i:end]

		if err := r.limiter.Wait(ctx); err != nil {
			return result, err
		}

		var changed []*contact.Contact
		for _, c := range page {
			result.Processed++
			if delta := r.engine.ComputeProfileSignals(c); delta == 0 {
				result.Skipped++
				continue
			}
			if err := r.store.Save(ctx, c); err != nil {
				slog.Warn("rescore save failed",
					"contact_id", c.ContactID,
					"error", err,
				)
				result.Errors++
				continue
			}
			result.Scored++
			changed = append(changed, c)
		}

		if err := dispatch.ContactEvents(ctx, changed, r.flags); err != nil {
			slog.Warn("rescore flag dispatch failed", "error", err)
		}

		slog.Debug("rescore page complete",
			"page_start", i,
			"page_size", len(page),
		)
	}

	result.Elapsed = time.Since(start)

	slog.Info("profile rescore complete",
		"processed", result.Processed,
		"scored", result.Scored,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"elapsed", result.Elapsed,
	)
	return result, nil
}
