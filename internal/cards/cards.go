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

// Package cards rebuilds the per-agent summary artifact from the
// refresh flags raised by scoring. Refresh is asynchronous and
// decoupled from scoring: the flag set is drained in one atomic pop,
// and each flagged agent's card is regenerated from their current
// top-scored contacts.
package cards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/risehq/scout/internal/contact"
)

const (
	// TopContactsPerCard is how many contacts a card summarises.
	TopContactsPerCard = 5

	// TopReasonsPerContact is how many score details each card entry shows.
	TopReasonsPerContact = 3

	// DefaultTTL is how long a generated card stays fresh.
	DefaultTTL = 15 * time.Minute
)

// CardContact is one contact summary on an agent's card.
type CardContact struct {
	ContactID  string   `json:"contact_id"`
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	TopReasons []string `json:"top_reasons,omitempty"`
	Insight    string   `json:"insight,omitempty"`
}

// Card is a per-agent summary of their highest-engagement contacts.
type Card struct {
	AgentID     string        `json:"agent_id"`
	Contacts    []CardContact `json:"contacts"`
	GeneratedAt time.Time     `json:"generated_at"`
	TTL         time.Duration `json:"ttl"`
}

// ContactStore is the read surface the card builder needs.
type ContactStore interface {
	GetTopByAgents(ctx context.Context, agentIDs []string, limit int) (map[string][]*contact.Contact, error)
}

// CardStore persists generated cards.
type CardStore interface {
	Save(ctx context.Context, card *Card) error
}

// FlagSource drains the agents flagged for refresh. PopFlaggedAgents is
// an atomic read-and-clear; the returned ids are deduplicated.
type FlagSource interface {
	PopFlaggedAgents(ctx context.Context) ([]string, error)
}

// InsightGenerator produces a short natural-language insight for a
// contact. Failures degrade to an empty insight, never to a failed card.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, c *contact.Contact) (string, error)
}

// Service regenerates cards for flagged agents.
type Service struct {
	contacts ContactStore
	cards    CardStore
	insights InsightGenerator
	flags    FlagSource
}

// NewService wires a card-refresh service.
func NewService(contacts ContactStore, cards CardStore, insights InsightGenerator, flags FlagSource) *Service {
	return &Service{
		contacts: contacts,
		cards:    cards,
		insights: insights,
		flags:    flags,
	}
}

// RefreshFlaggedAgents drains the refresh flags and rebuilds one card
// per flagged agent from their top-scored contacts. Agents with no
// contacts are skipped. Returns the number of cards written.
func (s *Service) RefreshFlaggedAgents(ctx context.Context) (int, error) {
	agentIDs, err := s.flags.PopFlaggedAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("pop flagged agents: %w", err)
	}
	if len(agentIDs) == 0 {
		slog.Debug("no agents flagged for refresh")
		return 0, nil
	}

	top, err := s.contacts.GetTopByAgents(ctx, agentIDs, TopContactsPerCard)
	if err != nil {
		return 0, fmt.Errorf("load top contacts: %w", err)
	}

	refreshed := 0
	for _, agentID := range agentIDs {
		contacts := top[agentID]
		if len(contacts) == 0 {
			continue
		}

		card := &Card{
			AgentID:     agentID,
			GeneratedAt: time.Now().UTC(),
			TTL:         DefaultTTL,
		}
		for _, c := range contacts {
			card.Contacts = append(card.Contacts, s.buildCardContact(ctx, c))
		}

		if err := s.cards.Save(ctx, card); err != nil {
			return refreshed, fmt.Errorf("save card for agent %s: %w", agentID, err)
		}
		refreshed++
	}

	slog.Info("card refresh complete",
		"agents", len(agentIDs),
		"refreshed", refreshed,
	)
	return refreshed, nil
}

func (s *Service) buildCardContact(ctx context.Context, c *contact.Contact) CardContact {
	return CardContact{
		ContactID:  c.ContactID,
		Name:       c.DisplayName(),
		Score:      c.Score,
		TopReasons: c.TopScoreDetails(TopReasonsPerContact),
		Insight:    s.generateInsightSafe(ctx, c),
	}
}

// generateInsightSafe swallows insight failures: the card ships with an
// empty insight rather than failing the refresh.
func (s *Service) generateInsightSafe(ctx context.Context, c *contact.Contact) string {
	if s.insights == nil {
		return ""
	}
	insight, err := s.insights.GenerateInsight(ctx, c)
	if err != nil {
		slog.Warn("insight generation failed",
			"contact_id", c.ContactID,
			"error", err,
		)
		return ""
	}
	return insight
}
