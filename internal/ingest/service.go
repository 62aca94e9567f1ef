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

// Package ingest consumes contact-change and interaction records,
// rescoring the affected contact and flagging its agents for a card
// refresh. Embedding generation is best-effort: the score mutation is
// computed and persisted whether or not the embedding call succeeds.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/dispatch"
	"github.com/risehq/scout/internal/scoring"
)

// ContactStore is the subset of contact persistence ingestion needs.
type ContactStore interface {
	Get(ctx context.Context, contactID string) (*contact.Contact, error)
	Save(ctx context.Context, c *contact.Contact) error
}

// Embedder generates an embedding vector for free text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service handles contact-change and interaction records.
type Service struct {
	contacts ContactStore
	engine   *scoring.Engine
	embedder Embedder
	flags    dispatch.FlagSink
}

// NewService wires an ingestion service.
func NewService(contacts ContactStore, engine *scoring.Engine, embedder Embedder, flags dispatch.FlagSink) *Service {
	return &Service{
		contacts: contacts,
		engine:   engine,
		embedder: embedder,
		flags:    flags,
	}
}

// HandleContactChange processes a profile change record: parse, carry
// over the existing score state on updates, recompute profile signals,
// refresh the embedding (best-effort), persist, and dispatch events.
func (s *Service) HandleContactChange(ctx context.Context, payload []byte) error {
	c, isNew, err := ParseContactChange(payload)
	if err != nil {
		return err
	}

	if !isNew {
		existing, err := s.contacts.Get(ctx, c.ContactID)
		if err != nil {
			return fmt.Errorf("load existing contact %s: %w", c.ContactID, err)
		}
		if existing != nil {
			c.Score = existing.Score
			c.ScoreReasons = existing.ScoreReasons
			c.Revision = existing.Revision
		}
	}

	s.engine.ComputeProfileSignals(c)

	if text := c.EmbeddingText(); s.embedder != nil && strings.TrimSpace(text) != "" {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			slog.Warn("embedding generation failed",
				"contact_id", c.ContactID,
				"error", err,
			)
		} else {
			c.Embedding = vec
		}
	}

	if err := s.contacts.Save(ctx, c); err != nil {
		return fmt.Errorf("save contact %s: %w", c.ContactID, err)
	}
	if err := dispatch.ContactEvents(ctx, []*contact.Contact{c}, s.flags); err != nil {
		return fmt.Errorf("dispatch contact events: %w", err)
	}

	slog.Info("contact ingested",
		"contact_id", c.ContactID,
		"is_new", isNew,
		"score", c.Score,
	)
	return nil
}

// HandleInteraction processes a behavioral interaction record. A
// missing contact is a logged skip, not an error.
func (s *Service) HandleInteraction(ctx context.Context, payload []byte) error {
	contactID, signal, detail, err := ParseInteraction(payload)
	if err != nil {
		return err
	}

	c, err := s.contacts.Get(ctx, contactID)
	if err != nil {
		return fmt.Errorf("load contact %s: %w", contactID, err)
	}
	if c == nil {
		slog.Warn("interaction for unknown contact", "contact_id", contactID)
		return nil
	}

	s.engine.ProcessSignal(c, signal, detail)
	now := time.Now().UTC()
	c.LastInteractionAt = &now

	if err := s.contacts.Save(ctx, c); err != nil {
		return fmt.Errorf("save contact %s: %w", contactID, err)
	}
	if err := dispatch.ContactEvents(ctx, []*contact.Contact{c}, s.flags); err != nil {
		return fmt.Errorf("dispatch contact events: %w", err)
	}

	slog.Info("interaction processed",
		"contact_id", contactID,
		"signal", signal,
		"score", c.Score,
	)
	return nil
}
