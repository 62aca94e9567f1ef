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

// Package scoring turns named signals into score deltas with an audited
// reason trail, and applies the periodic time decay that shrinks scores
// between signals.
package scoring

import "github.com/risehq/scout/internal/listing"

// Signal is a named, discrete event type carrying a configured point
// value and a fixed category.
type Signal string

const (
	// Profile signals
	PreferencesComplete Signal = "preferences_complete"
	HasEmail            Signal = "has_email"
	HasPhone            Signal = "has_phone"
	MultiAgent          Signal = "multi_agent"

	// Engagement signals
	ListingView     Signal = "listing_view"
	ListingSave     Signal = "listing_save"
	ListingShare    Signal = "listing_share"
	SearchPerformed Signal = "search_performed"
	OpenHouseRSVP   Signal = "open_house_rsvp"
	DocumentSigned  Signal = "document_signed"

	// Market signals
	PriceDropMatch    Signal = "price_drop_match"
	NewListingMatch   Signal = "new_listing_match"
	StatusChangeMatch Signal = "status_change_match"
	BackOnMarketMatch Signal = "back_on_market_match"

	// Relationship signals
	AgentNoteAdded    Signal = "agent_note_added"
	ContactedRecently Signal = "contacted_recently"
)

// Category returns the fixed audit classification for the signal.
// Categories group reasons for display; they play no part in scoring math.
func (s Signal) Category() string {
	switch s {
	case PreferencesComplete, HasEmail, HasPhone, MultiAgent:
		return "profile"
	case ListingView, ListingSave, ListingShare, SearchPerformed, OpenHouseRSVP, DocumentSigned:
		return "engagement"
	case PriceDropMatch, NewListingMatch, StatusChangeMatch, BackOnMarketMatch:
		return "market"
	case AgentNoteAdded, ContactedRecently:
		return "relationship"
	default:
		return "unknown"
	}
}

// AllSignals lists every signal the engine understands. The weights
// loader validates configured names against this set.
var AllSignals = []Signal{
	PreferencesComplete, HasEmail, HasPhone, MultiAgent,
	ListingView, ListingSave, ListingShare, SearchPerformed, OpenHouseRSVP, DocumentSigned,
	PriceDropMatch, NewListingMatch, StatusChangeMatch, BackOnMarketMatch,
	AgentNoteAdded, ContactedRecently,
}

// SignalForListingEvent maps a market event type to the signal that
// scores its matches. The second return is false for event types with
// no scoring mapping.
func SignalForListingEvent(t listing.EventType) (Signal, bool) {
	switch t {
	case listing.NewListing:
		return NewListingMatch, true
	case listing.PriceChange:
		return PriceDropMatch, true
	case listing.StatusChange:
		return StatusChangeMatch, true
	case listing.BackOnMarket:
		return BackOnMarketMatch, true
	default:
		return "", false
	}
}
