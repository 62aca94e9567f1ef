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

// Package sweep runs the periodic decay cycle over the full contact
// population.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/scoring"
)

// DefaultPageSize bounds how many contacts a single sweep page loads.
const DefaultPageSize = 500

// ContactStore is the persistence surface the sweeper needs: a stable,
// exhaustive iteration plus a batched writer.
type ContactStore interface {
	PaginateAll(ctx context.Context, pageSize int) ([]*contact.Contact, error)
	BulkSave(ctx context.Context, contacts []*contact.Contact) error
}

// Sweeper decays every positive-score contact once per cycle.
type Sweeper struct {
	store    ContactStore
	calc     *scoring.DecayCalculator
	pageSize int
}

// NewSweeper creates a sweeper over the given store and calculator.
func NewSweeper(store ContactStore, calc *scoring.DecayCalculator) *Sweeper {
	return &Sweeper{
		store:    store,
		calc:     calc,
		pageSize: DefaultPageSize,
	}
}

// Run performs one decay cycle and returns the number of contacts
// decayed. Zero-score contacts are skipped and not rewritten.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	contacts, err := s.store.PaginateAll(ctx, s.pageSize)
	if err != nil {
		return 0, fmt.Errorf("paginate contacts for decay: %w", err)
	}

	var decayed []*contact.Contact
	for _, c := range contacts {
		if c.Score <= 0 {
			continue
		}
		s.calc.Apply(c)
		decayed = append(decayed, c)
	}

	if err := s.store.BulkSave(ctx, decayed); err != nil {
		return 0, fmt.Errorf("save decayed contacts: %w", err)
	}

	slog.Info("decay sweep complete",
		"total", len(contacts),
		"decayed", len(decayed),
	)
	return len(decayed), nil
}
