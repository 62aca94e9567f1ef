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
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/risehq/scout/internal/listing"
)

// matchLimit bounds how many contacts a single listing event can score.
const matchLimit = 200

// SearchStore runs the inverted preference-match query: given a listing
// event, find every contact whose stored preference ranges bracket the
// event's attributes, whose preference sets contain them, or who is
// watching the listing.
type SearchStore struct {
	pool *pgxpool.Pool
}

// NewSearchStore creates a search store over the contacts table.
func NewSearchStore(pool *pgxpool.Pool) *SearchStore {
	return &SearchStore{pool: pool}
}

// FindMatchingContacts returns the contacts the event should affect,
// each with human-readable match reasons. Contacts must belong to the
// event's listing system (mls id); beyond that, at least one optional
// criterion must hold when any is evaluable.
func (s *SearchStore) FindMatchingContacts(ctx context.Context, ev listing.Event) ([]listing.MatchedContact, error) {
	query, args := buildMatchQuery(ev)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inverted match query for listing %s: %w", ev.ListingID, err)
	}
	defer rows.Close()

	reasons := matchReasons(ev)

	var matched []listing.MatchedContact
	for rows.Next() {
		var contactID string
		if err := rows.Scan(&contactID); err != nil {
			return nil, err
		}
		matched = append(matched, listing.MatchedContact{
			ContactID:    contactID,
			MatchReasons: reasons,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Info("inverted search complete",
		"listing_id", ev.ListingID,
		"matches", len(matched),
	)
	return matched, nil
}

// buildMatchQuery assembles the WHERE clause from the event's present
// attributes. Each optional attribute contributes one OR-term; the
// watched-listing term is always present. With no OR-terms at all the
// query would fall back to the mls filter alone, returning every
// contact in that listing system.
func buildMatchQuery(ev listing.Event) (string, []interface{}) {
	args := []interface{}{ev.MLSID}
	var terms []string

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if ev.Price != nil {
		p := arg(*ev.Price)
		terms = append(terms, fmt.Sprintf(
			`((preferences->>'price_min')::numeric <= %[1]s AND (preferences->>'price_max')::numeric >= %[1]s)`, p))
	}
	if ev.Beds != nil {
		b := arg(*ev.Beds)
		terms = append(terms, fmt.Sprintf(
			`((preferences->>'beds_min')::int <= %[1]s AND (preferences->>'beds_max')::int >= %[1]s)`, b))
	}
	if ev.ZipCode != nil {
		terms = append(terms, fmt.Sprintf(`preferences->'zip_codes' ? %s`, arg(*ev.ZipCode)))
	}
	if ev.City != nil {
		// City names arrive and are stored in mixed case; membership is
		// case-insensitive on both sides.
		terms = append(terms, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements_text(preferences->'cities') city WHERE lower(city) = %s)`,
			arg(strings.ToLower(*ev.City))))
	}
	if ev.PropertyType != nil {
		terms = append(terms, fmt.Sprintf(`preferences->'property_types' ? %s`, arg(*ev.PropertyType)))
	}

	terms = append(terms, fmt.Sprintf(`%s = ANY(watched_listings)`, arg(ev.ListingID)))

	where := `$1 = ANY(mls_ids)`
	if len(terms) > 0 {
		where += ` AND (` + strings.Join(terms, " OR ") + `)`
	}

	query := fmt.Sprintf(
		`SELECT contact_id FROM contacts WHERE %s ORDER BY score DESC LIMIT %d`,
		where, matchLimit)
	return query, args
}

// reasonPrinter renders prices with thousands separators.
var reasonPrinter = message.NewPrinter(language.English)

// matchReasons builds the human-readable reasons attached to every
// contact matched by this event.
func matchReasons(ev listing.Event) []string {
	reasons := []string{fmt.Sprintf("%s for listing %s", ev.Type, ev.ListingID)}
	if ev.Price != nil {
		reasons = append(reasons, reasonPrinter.Sprintf("Price $%.0f", *ev.Price))
	}
	if ev.ZipCode != nil {
		reasons = append(reasons, fmt.Sprintf("Location: %s", *ev.ZipCode))
	}
	return reasons
}
