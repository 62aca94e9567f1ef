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

// Package postgres provides the Postgres-backed stores for contacts and
// per-agent cards, plus the inverted preference-match query. Writes to
// a contact are guarded by a revision column: decay and signal
// processing never stomp each other's updates, a stale write surfaces
// as ErrStaleContact and is retried via queue redelivery.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/risehq/scout/internal/contact"
)

// EmbeddingDim is the fixed dimensionality of the contact embedding
// column. Must match the embedding model in use.
const EmbeddingDim = 1024

// bulkSaveBatch bounds how many contacts one BulkSave round trip writes.
const bulkSaveBatch = 100

// ErrStaleContact is returned when a save loses a compare-and-set race:
// the contact was modified since it was read.
var ErrStaleContact = errors.New("contact modified concurrently")

// ContactStore persists contacts in Postgres.
type ContactStore struct {
	pool *pgxpool.Pool
}

// NewContactStore creates a contact store backed by the given pool and
// ensures the schema exists.
func NewContactStore(ctx context.Context, pool *pgxpool.Pool) (*ContactStore, error) {
	s := &ContactStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure contact schema: %w", err)
	}
	slog.Info("contact store initialised")
	return s, nil
}

func (s *ContactStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS contacts (
			contact_id          TEXT PRIMARY KEY,
			agent_ids           TEXT[] NOT NULL DEFAULT '{}',
			org_unit_id         TEXT DEFAULT '',
			mls_ids             TEXT[] NOT NULL DEFAULT '{}',
			first_name          TEXT DEFAULT '',
			last_name           TEXT DEFAULT '',
			email               TEXT DEFAULT '',
			phone               TEXT DEFAULT '',
			preferences         JSONB NOT NULL DEFAULT '{}',
			watched_listings    TEXT[] NOT NULL DEFAULT '{}',
			score               DOUBLE PRECISION NOT NULL DEFAULT 0,
			score_reasons       JSONB NOT NULL DEFAULT '[]',
			embedding           vector(%d),
			last_interaction_at TIMESTAMPTZ,
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revision            BIGINT NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_contacts_agents ON contacts USING GIN (agent_ids);
		CREATE INDEX IF NOT EXISTS idx_contacts_mls ON contacts USING GIN (mls_ids);
		CREATE INDEX IF NOT EXISTS idx_contacts_score ON contacts (score DESC);
	`, EmbeddingDim))
	return err
}

const contactColumns = `contact_id, agent_ids, org_unit_id, mls_ids,
	first_name, last_name, email, phone, preferences, watched_listings,
	score, score_reasons, embedding, last_interaction_at, updated_at, revision`

// Get retrieves a single contact, or nil if it does not exist.
func (s *ContactStore) Get(ctx context.Context, contactID string) (*contact.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = $1`,
		contactID)
	return scanContact(row)
}

// Save persists the contact with a compare-and-set on its revision.
// A contact with revision zero is inserted; anything else updates the
// row it was read from. Losing either race returns ErrStaleContact so
// the caller's redelivery can retry on fresh state.
func (s *ContactStore) Save(ctx context.Context, c *contact.Contact) error {
	prefs, reasons, err := marshalContactJSON(c)
	if err != nil {
		return err
	}

	if c.Revision == 0 {
		ct, err := s.pool.Exec(ctx, `
			INSERT INTO contacts
				(contact_id, agent_ids, org_unit_id, mls_ids,
				 first_name, last_name, email, phone,
				 preferences, watched_listings, score, score_reasons,
				 embedding, last_interaction_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (contact_id) DO NOTHING
		`, c.ContactID, c.AgentIDs, c.OrgUnitID, c.MLSIDs,
			c.FirstName, c.LastName, c.Email, c.Phone,
			prefs, c.WatchedListings, c.Score, reasons,
			embeddingParam(c), c.LastInteractionAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert contact %s: %w", c.ContactID, err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("insert contact %s: %w", c.ContactID, ErrStaleContact)
		}
		c.Revision = 1
		return nil
	}

	ct, err := s.pool.Exec(ctx, `
		UPDATE contacts SET
			agent_ids = $2, org_unit_id = $3, mls_ids = $4,
			first_name = $5, last_name = $6, email = $7, phone = $8,
			preferences = $9, watched_listings = $10,
			score = $11, score_reasons = $12, embedding = $13,
			last_interaction_at = $14, updated_at = $15,
			revision = revision + 1
		WHERE contact_id = $1 AND revision = $16
	`, c.ContactID, c.AgentIDs, c.OrgUnitID, c.MLSIDs,
		c.FirstName, c.LastName, c.Email, c.Phone,
		prefs, c.WatchedListings, c.Score, reasons,
		embeddingParam(c), c.LastInteractionAt, c.UpdatedAt, c.Revision)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.ContactID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update contact %s: %w", c.ContactID, ErrStaleContact)
	}
	c.Revision++
	return nil
}

// BulkGet retrieves the contacts that exist among the given ids.
// Missing ids are silently absent from the result.
func (s *ContactStore) BulkGet(ctx context.Context, contactIDs []string) ([]*contact.Contact, error) {
	if len(contactIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = ANY($1)`,
		contactIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

// BulkSave persists contacts in batches, preserving per-contact
// compare-and-set semantics. The first failure aborts the remainder.
func (s *ContactStore) BulkSave(ctx context.Context, contacts []*contact.Contact) error {
	for start := 0; start < len(contacts); start += bulkSaveBatch {
		end := min(start+bulkSaveBatch, len(contacts))
		for _, c := range contacts[start:end] {
			if err := s.Save(ctx, c); err != nil {
				return err
			}
		}
	}
	if len(contacts) > 0 {
		slog.Info("bulk save complete", "count", len(contacts))
	}
	return nil
}

// GetTopByAgents returns each agent's highest-scored contacts, ordered
// by score descending.
func (s *ContactStore) GetTopByAgents(ctx context.Context, agentIDs []string, limit int) (map[string][]*contact.Contact, error) {
	result := make(map[string][]*contact.Contact, len(agentIDs))

	for _, agentID := range agentIDs {
		rows, err := s.pool.Query(ctx,
			`SELECT `+contactColumns+` FROM contacts
			 WHERE $1 = ANY(agent_ids)
			 ORDER BY score DESC
			 LIMIT $2`,
			agentID, limit)
		if err != nil {
			return nil, fmt.Errorf("top contacts for agent %s: %w", agentID, err)
		}
		contacts, err := collectContacts(rows)
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("top contacts for agent %s: %w", agentID, err)
		}
		result[agentID] = contacts
	}

	return result, nil
}

// PaginateAll iterates the whole contact table in stable keyset pages
// and returns the accumulated result. Used by decay sweeps and the
// rescore job.
func (s *ContactStore) PaginateAll(ctx context.Context, pageSize int) ([]*contact.Contact, error) {
	var all []*contact.Contact
	lastID := ""

	for {
		rows, err := s.pool.Query(ctx,
			`SELECT `+contactColumns+` FROM contacts
			 WHERE contact_id > $1
			 ORDER BY contact_id
			 LIMIT $2`,
			lastID, pageSize)
		if err != nil {
			return nil, err
		}
		page, err := collectContacts(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}

		all = append(all, page...)
		lastID = page[len(page)-1].ContactID
		slog.Debug("contact page loaded", "count", len(page))
	}
}

// marshalContactJSON serialises the JSONB-backed fields.
func marshalContactJSON(c *contact.Contact) (prefs, reasons []byte, err error) {
	prefs, err = json.Marshal(c.Preferences)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal preferences for %s: %w", c.ContactID, err)
	}
	reasons, err = json.Marshal(c.ScoreReasons)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal score reasons for %s: %w", c.ContactID, err)
	}
	if c.ScoreReasons == nil {
		reasons = []byte("[]")
	}
	return prefs, reasons, nil
}

// embeddingParam maps an absent embedding to NULL.
func embeddingParam(c *contact.Contact) interface{} {
	if len(c.Embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(c.Embedding)
}

// scanContact scans a single row into a Contact.
func scanContact(row pgx.Row) (*contact.Contact, error) {
	c, err := scanContactRow(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanContactRow(row pgx.Row) (*contact.Contact, error) {
	var (
		c         contact.Contact
		prefs     []byte
		reasons   []byte
		embedding *pgvector.Vector
	)

	err := row.Scan(
		&c.ContactID, &c.AgentIDs, &c.OrgUnitID, &c.MLSIDs,
		&c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&prefs, &c.WatchedListings,
		&c.Score, &reasons, &embedding,
		&c.LastInteractionAt, &c.UpdatedAt, &c.Revision,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(prefs, &c.Preferences); err != nil {
		return nil, fmt.Errorf("unmarshal preferences for %s: %w", c.ContactID, err)
	}
	if err := json.Unmarshal(reasons, &c.ScoreReasons); err != nil {
		return nil, fmt.Errorf("unmarshal score reasons for %s: %w", c.ContactID, err)
	}
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	return &c, nil
}

// collectContacts scans multiple rows.
func collectContacts(rows pgx.Rows) ([]*contact.Contact, error) {
	var contacts []*contact.Contact
	for rows.Next() {
		c, err := scanContactRow(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
