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

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/risehq/scout/internal/cards"
)

// CardStore persists per-agent summary cards.
type CardStore struct {
	pool *pgxpool.Pool
}

// NewCardStore creates a card store backed by the given pool and
// ensures the schema exists.
func NewCardStore(ctx context.Context, pool *pgxpool.Pool) (*CardStore, error) {
	s := &CardStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure card schema: %w", err)
	}
	slog.Info("card store initialised")
	return s, nil
}

func (s *CardStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cards (
			agent_id     TEXT PRIMARY KEY,
			contacts     JSONB NOT NULL DEFAULT '[]',
			generated_at TIMESTAMPTZ NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cards_expires ON cards (expires_at);
	`)
	return err
}

// Save upserts one agent's card. The previous card, fresh or stale, is
// always replaced.
func (s *CardStore) Save(ctx context.Context, card *cards.Card) error {
	contactsJSON, err := json.Marshal(card.Contacts)
	if err != nil {
		return fmt.Errorf("marshal card contacts for agent %s: %w", card.AgentID, err)
	}

	expiresAt := card.GeneratedAt.Add(card.TTL)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO cards (agent_id, contacts, generated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_id) DO UPDATE SET
			contacts     = EXCLUDED.contacts,
			generated_at = EXCLUDED.generated_at,
			expires_at   = EXCLUDED.expires_at
	`, card.AgentID, contactsJSON, card.GeneratedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("save card for agent %s: %w", card.AgentID, err)
	}

	slog.Info("card saved", "agent_id", card.AgentID)
	return nil
}

// Get retrieves an agent's card if it exists and has not expired.
func (s *CardStore) Get(ctx context.Context, agentID string) (*cards.Card, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT agent_id, contacts, generated_at, expires_at
		FROM cards
		WHERE agent_id = $1 AND expires_at > NOW()
	`, agentID)

	var (
		card         cards.Card
		contactsJSON []byte
		expiresAt    time.Time
	)
	err := row.Scan(&card.AgentID, &contactsJSON, &card.GeneratedAt, &expiresAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(contactsJSON, &card.Contacts); err != nil {
		return nil, fmt.Errorf("unmarshal card contacts for agent %s: %w", agentID, err)
	}
	card.TTL = expiresAt.Sub(card.GeneratedAt)
	return &card, nil
}
