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

package ingest

import (
	"testing"

	"github.com/risehq/scout/internal/listing"
	"github.com/risehq/scout/internal/scoring"
)

// TestParseContactChange_Create verifies field mapping and the create
// flag.
func TestParseContactChange_Create(t *testing.T) {
	payload := []byte(`{
		"contact_id": "c1",
		"event_type": "create",
		"user_ids": ["a1", "a2"],
		"organisationalunit_id": "ou-9",
		"mls_ids": ["mls-1"],
		"first_name": "Ada",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"phone": "555-0100",
		"preferences": {"price_min": 100000, "price_max": 500000, "zip_codes": ["78701"]},
		"watched_listings": ["L-1"]
	}`)

	c, isNew, err := ParseContactChange(payload)
	if err != nil {
		t.Fatalf("ParseContactChange: %v", err)
	}
	if !isNew {
		t.Error("isNew = false, want true")
	}
	if c.ContactID != "c1" {
		t.Errorf("ContactID = %q, want c1", c.ContactID)
	}
	if len(c.AgentIDs) != 2 {
		t.Errorf("len(AgentIDs) = %d, want 2", len(c.AgentIDs))
	}
	if c.OrgUnitID != "ou-9" {
		t.Errorf("OrgUnitID = %q, want ou-9", c.OrgUnitID)
	}
	if !c.Preferences.IsComplete() {
		t.Error("parsed preferences should be complete")
	}
	if len(c.WatchedListings) != 1 || c.WatchedListings[0] != "L-1" {
		t.Errorf("WatchedListings = %v, want [L-1]", c.WatchedListings)
	}
}

func TestParseContactChange_Update(t *testing.T) {
	_, isNew, err := ParseContactChange([]byte(`{"contact_id": "c1", "event_type": "update"}`))
	if err != nil {
		t.Fatalf("ParseContactChange: %v", err)
	}
	if isNew {
		t.Error("isNew = true, want false")
	}
}

func TestParseContactChange_MissingID(t *testing.T) {
	if _, _, err := ParseContactChange([]byte(`{"event_type": "create"}`)); err == nil {
		t.Error("expected error for missing contact_id")
	}
}

func TestParseInteraction(t *testing.T) {
	contactID, signal, detail, err := ParseInteraction([]byte(`{
		"contact_id": "c1",
		"interaction_type": "listing_save",
		"detail": "listing L-7"
	}`))
	if err != nil {
		t.Fatalf("ParseInteraction: %v", err)
	}
	if contactID != "c1" {
		t.Errorf("contactID = %q, want c1", contactID)
	}
	if signal != scoring.ListingSave {
		t.Errorf("signal = %q, want listing_save", signal)
	}
	if detail != "listing L-7" {
		t.Errorf("detail = %q, want listing L-7", detail)
	}
}

func TestParseInteraction_UnknownType(t *testing.T) {
	_, _, _, err := ParseInteraction([]byte(`{"contact_id": "c1", "interaction_type": "teleport"}`))
	if err == nil {
		t.Error("expected error for unknown interaction type")
	}
}

func TestParseListingEvent(t *testing.T) {
	ev, err := ParseListingEvent([]byte(`{
		"listing_id": "L-1",
		"event_type": "price_change",
		"mls_id": "mls-1",
		"price": 450000,
		"previous_price": 475000,
		"zip_code": "78701"
	}`))
	if err != nil {
		t.Fatalf("ParseListingEvent: %v", err)
	}
	if ev.Type != listing.PriceChange {
		t.Errorf("Type = %q, want price_change", ev.Type)
	}
	if ev.Price == nil || *ev.Price != 450000 {
		t.Errorf("Price = %v, want 450000", ev.Price)
	}
	if ev.Beds != nil {
		t.Errorf("Beds = %v, want nil for absent field", ev.Beds)
	}
}

// TestParseListingEvent_DefaultType verifies an absent event_type is
// treated as a new listing.
func TestParseListingEvent_DefaultType(t *testing.T) {
	ev, err := ParseListingEvent([]byte(`{"listing_id": "L-1", "mls_id": "mls-1"}`))
	if err != nil {
		t.Fatalf("ParseListingEvent: %v", err)
	}
	if ev.Type != listing.NewListing {
		t.Errorf("Type = %q, want new_listing", ev.Type)
	}
}

func TestParseListingEvent_UnknownType(t *testing.T) {
	if _, err := ParseListingEvent([]byte(`{"listing_id": "L-1", "event_type": "demolished"}`)); err == nil {
		t.Error("expected error for unknown event type")
	}
}
