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

// Package listing defines the market-event value types shared by the
// scoring and matching layers.
package listing

// EventType identifies the kind of market change a listing event carries.
type EventType string

const (
	NewListing   EventType = "new_listing"
	PriceChange  EventType = "price_change"
	StatusChange EventType = "status_change"
	BackOnMarket EventType = "back_on_market"
)

// Event describes a single market-side change to a listing. Every
// attribute beyond the identifiers is optional: a nil field means the
// upstream feed did not provide it.
type Event struct {
	ListingID string
	Type      EventType
	MLSID     string

	Price         *float64
	PreviousPrice *float64
	Status        *string
	Beds          *int
	Baths         *int
	Sqft          *int
	PropertyType  *string
	ZipCode       *string
	City          *string
	Lat           *float64
	Lon           *float64
}

// MatchedContact pairs a contact id with the human-readable reasons the
// inverted search matched it against a listing event.
type MatchedContact struct {
	ContactID    string
	MatchReasons []string
}
