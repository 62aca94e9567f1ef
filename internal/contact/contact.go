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

// Package contact defines the Contact entity: the single owner of a
// prospect's engagement score, its audited score history, and its stored
// search preferences. All numeric state changes go through the entity's
// mutators so that score invariants hold and domain events are emitted
// from exactly one place.
package contact

import (
	"strings"
	"time"
)

// MaxReasons caps the score-reason audit trail. Older entries are
// trimmed from the tail when the cap is exceeded.
const MaxReasons = 50

// ScoreReason is an immutable audit entry recording why a score changed.
type ScoreReason struct {
	Signal    string    `json:"signal"`
	Points    float64   `json:"points"`
	Category  string    `json:"category"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScoreReason builds a reason stamped with the current time.
func NewScoreReason(signal string, points float64, category, detail string) ScoreReason {
	return ScoreReason{
		Signal:    signal,
		Points:    points,
		Category:  category,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}

// Contact is a prospective client tracked for one or more agents.
//
// The pending event buffer is transient: it is never persisted and is
// drained exactly once per mutation cycle via CollectEvents.
type Contact struct {
	ContactID string   `json:"contact_id"`
	AgentIDs  []string `json:"agent_ids"`
	OrgUnitID string   `json:"org_unit_id,omitempty"`
	MLSIDs    []string `json:"mls_ids,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	Preferences     Preferences `json:"preferences"`
	WatchedListings []string    `json:"watched_listings,omitempty"`

	Score        float64       `json:"score"`
	ScoreReasons []ScoreReason `json:"score_reasons,omitempty"`

	// Embedding mirrors EmbeddingText at the time it was last generated.
	// Stored as float32 to match the vector column type.
	Embedding []float32 `json:"-"`

	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Revision is the persistence compare-and-set token. Zero means the
	// contact has never been saved.
	Revision int64 `json:"-"`

	pending []Event
}

// ApplyScoreDelta adjusts the score by delta, flooring at zero, records
// the reason at the head of the audit trail, and buffers a ContactScored
// event for the current owning agents. This is the only mutation that
// produces a score-changed event.
func (c *Contact) ApplyScoreDelta(delta float64, reason ScoreReason) {
	c.Score = max(0, c.Score+delta)
	c.ScoreReasons = append([]ScoreReason{reason}, c.ScoreReasons...)
	c.trimReasons()
	c.UpdatedAt = time.Now().UTC()

	agents := make([]string, len(c.AgentIDs))
	copy(agents, c.AgentIDs)
	c.pending = append(c.pending, NewContactScored(c.ContactID, agents))
}

// ApplyDecay shrinks the score multiplicatively. Decay is not
// agent-notifiable, so no event is buffered.
func (c *Contact) ApplyDecay(factor float64) {
	c.Score = max(0, c.Score*factor)
	c.UpdatedAt = time.Now().UTC()
}

// CollectEvents returns the buffered domain events and clears the
// buffer. Calling it again without an intervening mutation yields nil.
func (c *Contact) CollectEvents() []Event {
	events := c.pending
	c.pending = nil
	return events
}

// trimReasons drops the oldest entries beyond MaxReasons.
func (c *Contact) trimReasons() {
	if len(c.ScoreReasons) > MaxReasons {
		c.ScoreReasons = c.ScoreReasons[:MaxReasons]
	}
}

// DisplayName returns "First Last" with surrounding whitespace trimmed.
func (c *Contact) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// EmbeddingText concatenates the textual parts of the contact that feed
// the embedding model: name, preference keywords, cities, and zip codes.
// Empty parts are skipped; a contact with none of these yields "".
func (c *Contact) EmbeddingText() string {
	parts := []string{
		c.FirstName,
		c.LastName,
		strings.Join(c.Preferences.Keywords, " "),
		strings.Join(c.Preferences.Cities, " "),
		strings.Join(c.Preferences.ZipCodes, " "),
	}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// TopScoreDetails returns the detail strings of the most recent reasons,
// newest first, up to limit.
func (c *Contact) TopScoreDetails(limit int) []string {
	if limit > len(c.ScoreReasons) {
		limit = len(c.ScoreReasons)
	}
	details := make([]string, 0, limit)
	for _, r := range c.ScoreReasons[:limit] {
		details = append(details, r.Detail)
	}
	return details
}
