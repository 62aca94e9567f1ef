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

// Package dispatch bridges contact mutations to the card-refresh cycle.
// After a batch of contacts has been scored, the dispatcher drains their
// event buffers and flags the affected agents for a summary refresh:
// once per batch, deduplicated, and only for contacts whose score
// actually changed.
package dispatch

import (
	"context"
	"sort"

	"github.com/risehq/scout/internal/contact"
)

// FlagSink marks agents whose summary card is stale. FlagAgents must
// merge (union) with flags raised by other producers, never overwrite.
type FlagSink interface {
	FlagAgents(ctx context.Context, agentIDs []string) error
}

// ContactEvents drains the buffered events of each contact and unions
// the agent ids of every ContactScored event into a single, sorted flag
// call. Contacts whose score did not change contribute nothing; an
// empty union means the sink is not called at all.
func ContactEvents(ctx context.Context, contacts []*contact.Contact, sink FlagSink) error {
	agents := make(map[string]struct{})
	for _, c := range contacts {
		for _, ev := range c.CollectEvents() {
			scored, ok := ev.(contact.ContactScored)
			if !ok {
				continue
			}
			for _, id := range scored.AgentIDs {
				agents[id] = struct{}{}
			}
		}
	}

	if len(agents) == 0 {
		return nil
	}

	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return sink.FlagAgents(ctx, ids)
}
