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
	"encoding/json"
	"fmt"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/listing"
	"github.com/risehq/scout/internal/scoring"
)

// contactChangePayload mirrors the upstream contact-change record.
type contactChangePayload struct {
	ContactID string   `json:"contact_id"`
	EventType string   `json:"event_type"`
	UserIDs   []string `json:"user_ids"`
	OrgUnitID string   `json:"organisationalunit_id"`
	MLSIDs    []string `json:"mls_ids"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Preferences     contact.Preferences `json:"preferences"`
	WatchedListings []string            `json:"watched_listings"`
}

// ParseContactChange decodes a contact-change record into a fresh
// Contact. The second return reports whether the record is a creation
// (as opposed to an update of an existing contact).
func ParseContactChange(data []byte) (*contact.Contact, bool, error) {
	var p contactChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("decode contact change: %w", err)
	}
	if p.ContactID == "" {
		return nil, false, fmt.Errorf("contact change missing contact_id")
	}

	c := &contact.Contact{
		ContactID:       p.ContactID,
		AgentIDs:        p.UserIDs,
		OrgUnitID:       p.OrgUnitID,
		MLSIDs:          p.MLSIDs,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		Preferences:     p.Preferences,
		WatchedListings: p.WatchedListings,
	}
	return c, p.EventType == "create", nil
}

// interactionSignals maps upstream interaction types to scoring signals.
var interactionSignals = map[string]scoring.Signal{
	"listing_view":       scoring.ListingView,
	"listing_save":       scoring.ListingSave,
	"listing_share":      scoring.ListingShare,
	"search_performed":   scoring.SearchPerformed,
	"open_house_rsvp":    scoring.OpenHouseRSVP,
	"document_signed":    scoring.DocumentSigned,
	"agent_note_added":   scoring.AgentNoteAdded,
	"contacted_recently": scoring.ContactedRecently,
}

// interactionPayload mirrors the upstream behavioral-interaction record.
type interactionPayload struct {
	ContactID       string `json:"contact_id"`
	InteractionType string `json:"interaction_type"`
	Detail          string `json:"detail"`
}

// ParseInteraction decodes an interaction record into the contact to
// score, the mapped signal, and the free-text detail.
func ParseInteraction(data []byte) (contactID string, signal scoring.Signal, detail string, err error) {
	var p interactionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", "", "", fmt.Errorf("decode interaction: %w", err)
	}
	if p.ContactID == "" {
		return "", "", "", fmt.Errorf("interaction missing contact_id")
	}

	signal, ok := interactionSignals[p.InteractionType]
	if !ok {
		return "", "", "", fmt.Errorf("unknown interaction type %q", p.InteractionType)
	}
	return p.ContactID, signal, p.Detail, nil
}

// listingEventTypes maps upstream event-type strings to typed values.
var listingEventTypes = map[string]listing.EventType{
	"new":            listing.NewListing,
	"price_change":   listing.PriceChange,
	"status_change":  listing.StatusChange,
	"back_on_market": listing.BackOnMarket,
}

// listingEventPayload mirrors the upstream market-event record. All
// attribute fields are pointers: absent means "not provided".
type listingEventPayload struct {
	ListingID string `json:"listing_id"`
	EventType string `json:"event_type"`
	MLSID     string `json:"mls_id"`

	Price         *float64 `json:"price"`
	PreviousPrice *float64 `json:"previous_price"`
	Status        *string  `json:"status"`
	Beds          *int     `json:"beds"`
	Baths         *int     `json:"baths"`
	Sqft          *int     `json:"sqft"`
	PropertyType  *string  `json:"property_type"`
	ZipCode       *string  `json:"zip_code"`
	City          *string  `json:"city"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
}

// ParseListingEvent decodes a market-event record. A missing event_type
// defaults to a new listing, matching the upstream feed's behaviour.
func ParseListingEvent(data []byte) (listing.Event, error) {
	var p listingEventPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return listing.Event{}, fmt.Errorf("decode listing event: %w", err)
	}
	if p.ListingID == "" {
		return listing.Event{}, fmt.Errorf("listing event missing listing_id")
	}

	raw := p.EventType
	if raw == "" {
		raw = "new"
	}
	eventType, ok := listingEventTypes[raw]
	if !ok {
		return listing.Event{}, fmt.Errorf("unknown listing event type %q", raw)
	}

	return listing.Event{
		ListingID:     p.ListingID,
		Type:          eventType,
		MLSID:         p.MLSID,
		Price:         p.Price,
		PreviousPrice: p.PreviousPrice,
		Status:        p.Status,
		Beds:          p.Beds,
		Baths:         p.Baths,
		Sqft:          p.Sqft,
		PropertyType:  p.PropertyType,
		ZipCode:       p.ZipCode,
		City:          p.City,
		Lat:           p.Lat,
		Lon:           p.Lon,
	}, nil
}
