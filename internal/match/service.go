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

// Package match turns a single market event into score changes for every
// contact whose stored preferences bracket the listing or who is
// watching it. The inverted query itself is issued to the search
// collaborator; this service owns the event-to-signal mapping and the
// scoring of each returned match.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/dispatch"
	"github.com/risehq/scout/internal/listing"
	"github.com/risehq/scout/internal/scoring"
)

// SearchStore is the inverted-index collaborator. Given a listing event
// it returns every contact with at least one satisfied criterion (range
// bracket, set membership, or watched listing), with reasons.
type SearchStore interface {
	FindMatchingContacts(ctx context.Context, ev listing.Event) ([]listing.MatchedContact, error)
}

// ContactStore is the subset of contact persistence the matcher needs.
type ContactStore interface {
	BulkGet(ctx context.Context, contactIDs []string) ([]*contact.Contact, error)
	BulkSave(ctx context.Context, contacts []*contact.Contact) error
}

// Service scores matched contacts for incoming listing events.
type Service struct {
	contacts ContactStore
	search   SearchStore
	engine   *scoring.Engine
	flags    dispatch.FlagSink
}

// NewService wires a listing-match service.
func NewService(contacts ContactStore, search SearchStore, engine *scoring.Engine, flags dispatch.FlagSink) *Service {
	return &Service{
		contacts: contacts,
		search:   search,
		engine:   engine,
		flags:    flags,
	}
}

// HandleListingEvent matches the event against stored preferences,
// scores every matched contact with the event's mapped signal, persists
// the mutations, and flags the owning agents. An event type with no
// signal mapping is logged and skipped; zero matches flag nobody.
func (s *Service) HandleListingEvent(ctx context.Context, ev listing.Event) error {
	matched, err := s.search.FindMatchingContacts(ctx, ev)
	if err != nil {
		return fmt.Errorf("find matching contacts for listing %s: %w", ev.ListingID, err)
	}

	if len(matched) == 0 {
		slog.Info("no contacts matched listing event",
			"listing_id", ev.ListingID,
			"event_type", ev.Type,
		)
		return nil
	}

	signal, ok := scoring.SignalForListingEvent(ev.Type)
	if !ok {
		slog.Warn("listing event type has no scoring signal", "event_type", ev.Type)
		return nil
	}

	contactIDs := make([]string, 0, len(matched))
	for _, m := range matched {
		contactIDs = append(contactIDs, m.ContactID)
	}

	loaded, err := s.contacts.BulkGet(ctx, contactIDs)
	if err != nil {
		return fmt.Errorf("bulk get matched contacts: %w", err)
	}
	byID := make(map[string]*contact.Contact, len(loaded))
	for _, c := range loaded {
		byID[c.ContactID] = c
	}

	modified := make([]*contact.Contact, 0, len(matched))
	for _, m := range matched {
		c, ok := byID[m.ContactID]
		if !ok {
			continue
		}
		detail := strings.Join(m.MatchReasons, "; ")
		s.engine.ProcessSignal(c, signal, detail)
		modified = append(modified, c)
	}

	if err := s.contacts.BulkSave(ctx, modified); err != nil {
		return fmt.Errorf("bulk save matched contacts: %w", err)
	}
	if err := dispatch.ContactEvents(ctx, modified, s.flags); err != nil {
		return fmt.Errorf("dispatch contact events: %w", err)
	}

	slog.Info("listing matching complete",
		"listing_id", ev.ListingID,
		"event_type", ev.Type,
		"matched", len(matched),
		"scored", len(modified),
	)
	return nil
}
