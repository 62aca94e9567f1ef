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

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event buffered on the entity that raised it and
// collected by the caller after each service-level operation.
type Event interface {
	EventTime() time.Time
}

// ContactScored records that a contact's score changed. It carries the
// agent ids that owned the contact at the moment of the change, so the
// dispatcher can flag them even if ownership later changes.
type ContactScored struct {
	EventID    string
	ContactID  string
	AgentIDs   []string
	OccurredAt time.Time
}

// NewContactScored stamps a scored event with an id and the current time.
func NewContactScored(contactID string, agentIDs []string) ContactScored {
	return ContactScored{
		EventID:    uuid.New().String(),
		ContactID:  contactID,
		AgentIDs:   agentIDs,
		OccurredAt: time.Now().UTC(),
	}
}

// EventTime implements Event.
func (e ContactScored) EventTime() time.Time { return e.OccurredAt }
