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

package contact

// PropertyType classifies a listing's property category.
type PropertyType string

const (
	SingleFamily PropertyType = "single_family"
	Condo        PropertyType = "condo"
	Townhouse    PropertyType = "townhouse"
	MultiFamily  PropertyType = "multi_family"
	Land         PropertyType = "land"
	OtherType    PropertyType = "other"
)

// Preferences holds a contact's stored search criteria. All ranges are
// optional; a nil bound means "no constraint from upstream".
type Preferences struct {
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	BedsMin  *int     `json:"beds_min,omitempty"`
	BedsMax  *int     `json:"beds_max,omitempty"`
	BathsMin *int     `json:"baths_min,omitempty"`
	BathsMax *int     `json:"baths_max,omitempty"`
	SqftMin  *int     `json:"sqft_min,omitempty"`
	SqftMax  *int     `json:"sqft_max,omitempty"`

	PropertyTypes []PropertyType `json:"property_types,omitempty"`
	ZipCodes      []string       `json:"zip_codes,omitempty"`
	Cities        []string       `json:"cities,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
}

// IsComplete reports whether the preferences are usable for matching:
// both price bounds set, plus at least one zip code or city.
func (p Preferences) IsComplete() bool {
	return p.PriceMin != nil && p.PriceMax != nil &&
		(len(p.ZipCodes) > 0 || len(p.Cities) > 0)
}
