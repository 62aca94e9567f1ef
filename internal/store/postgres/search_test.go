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
	"strings"
	"testing"

	"github.com/risehq/scout/internal/listing"
)

func ptr[T any](v T) *T { return &v }

// TestBuildMatchQuery_AllAttributes verifies every present attribute
// contributes an OR-term behind the mandatory mls filter.
func TestBuildMatchQuery_AllAttributes(t *testing.T) {
	ev := listing.Event{
		ListingID:    "L-1",
		Type:         listing.NewListing,
		MLSID:        "mls-1",
		Price:        ptr(450000.0),
		Beds:         ptr(3),
		ZipCode:      ptr("78701"),
		City:         ptr("Austin"),
		PropertyType: ptr("condo"),
	}

	query, args := buildMatchQuery(ev)

	if !strings.HasPrefix(query, "SELECT contact_id FROM contacts WHERE $1 = ANY(mls_ids) AND (") {
		t.Errorf("query prefix wrong: %s", query)
	}
	for _, frag := range []string{
		"price_min", "beds_min", "'zip_codes' ?",
		"jsonb_array_elements_text(preferences->'cities')", "'property_types' ?",
		"= ANY(watched_listings)", "ORDER BY score DESC", "LIMIT 200",
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query missing %q: %s", frag, query)
		}
	}

	// mls id, price, beds, zip, city, property type, listing id
	if len(args) != 7 {
		t.Fatalf("len(args) = %d, want 7", len(args))
	}
	if args[0] != "mls-1" {
		t.Errorf("args[0] = %v, want mls-1", args[0])
	}
	// Cities are matched lowercased.
	if args[4] != "austin" {
		t.Errorf("args[4] = %v, want austin", args[4])
	}
	if args[6] != "L-1" {
		t.Errorf("args[6] = %v, want L-1", args[6])
	}
}

// TestBuildMatchQuery_CityCaseInsensitive verifies city membership
// compares lowercased values on both sides, so mixed-case stored
// preferences still match.
func TestBuildMatchQuery_CityCaseInsensitive(t *testing.T) {
	ev := listing.Event{
		ListingID: "L-1",
		Type:      listing.NewListing,
		MLSID:     "mls-1",
		City:      ptr("Austin"),
	}

	query, args := buildMatchQuery(ev)

	if !strings.Contains(query, "WHERE lower(city) = $2") {
		t.Errorf("query missing lowered stored-city comparison: %s", query)
	}
	if args[1] != "austin" {
		t.Errorf("args[1] = %v, want lowered austin", args[1])
	}
}

// TestBuildMatchQuery_SparseEvent verifies an event with no optional
// attributes still carries the watched-listing term.
func TestBuildMatchQuery_SparseEvent(t *testing.T) {
	ev := listing.Event{ListingID: "L-1", Type: listing.StatusChange, MLSID: "mls-1"}

	query, args := buildMatchQuery(ev)

	if strings.Contains(query, "price_min") {
		t.Errorf("unexpected price term: %s", query)
	}
	if !strings.Contains(query, "$2 = ANY(watched_listings)") {
		t.Errorf("query missing watched term: %s", query)
	}
	if len(args) != 2 {
		t.Errorf("len(args) = %d, want 2", len(args))
	}
}

func TestMatchReasons(t *testing.T) {
	ev := listing.Event{
		ListingID: "L-1",
		Type:      listing.PriceChange,
		Price:     ptr(450000.0),
		ZipCode:   ptr("78701"),
	}

	reasons := matchReasons(ev)

	want := []string{
		"price_change for listing L-1",
		"Price $450,000",
		"Location: 78701",
	}
	if len(reasons) != len(want) {
		t.Fatalf("len(reasons) = %d, want %d", len(reasons), len(want))
	}
	for i := range want {
		if reasons[i] != want[i] {
			t.Errorf("reasons[%d] = %q, want %q", i, reasons[i], want[i])
		}
	}
}

func TestMatchReasons_MinimalEvent(t *testing.T) {
	reasons := matchReasons(listing.Event{ListingID: "L-1", Type: listing.NewListing})
	if len(reasons) != 1 || reasons[0] != "new_listing for listing L-1" {
		t.Errorf("reasons = %v", reasons)
	}
}
