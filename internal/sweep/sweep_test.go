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

package sweep

import (
	"context"
	"errors"
	"testing"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/scoring"
)

type mockContactStore struct {
	contacts []*contact.Contact
	saved    []*contact.Contact
	saveErr  error
}

func (m *mockContactStore) PaginateAll(_ context.Context, _ int) ([]*contact.Contact, error) {
	return m.contacts, nil
}

func (m *mockContactStore) BulkSave(_ context.Context, contacts []*contact.Contact) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, contacts...)
	return nil
}

// TestSweep_DecaysPositiveScores verifies only positive-score contacts
// are decayed and written back.
func TestSweep_DecaysPositiveScores(t *testing.T) {
	store := &mockContactStore{contacts: []*contact.Contact{
		{ContactID: "c1", Score: 100},
		{ContactID: "c2", Score: 0},
		{ContactID: "c3", Score: 40},
	}}
	sweeper := NewSweeper(store, scoring.NewDecayCalculator(scoring.DefaultWeights()))

	decayed, err := sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if decayed != 2 {
		t.Errorf("decayed = %d, want 2", decayed)
	}
	if len(store.saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(store.saved))
	}
	if got := store.saved[0].Score; got != 95 {
		t.Errorf("c1 score = %v, want 95", got)
	}
	if got := store.contacts[1].Score; got != 0 {
		t.Errorf("c2 score = %v, want untouched 0", got)
	}
}

func TestSweep_SaveErrorPropagates(t *testing.T) {
	store := &mockContactStore{
		contacts: []*contact.Contact{{ContactID: "c1", Score: 10}},
		saveErr:  errors.New("db down"),
	}
	sweeper := NewSweeper(store, scoring.NewDecayCalculator(scoring.DefaultWeights()))

	if _, err := sweeper.Run(context.Background()); err == nil {
		t.Error("expected error from failing save")
	}
}
