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

package rescore

import (
	"context"
	"errors"
	"testing"

	"github.com/risehq/scout/internal/contact"
	"github.com/risehq/scout/internal/scoring"
)

type mockContactStore struct {
	contacts []*contact.Contact
	saved    []string
	failIDs  map[string]bool
}

func (m *mockContactStore) PaginateAll(_ context.Context, _ int) ([]*contact.Contact, error) {
	return m.contacts, nil
}

func (m *mockContactStore) Save(_ context.Context, c *contact.Contact) error {
	if m.failIDs[c.ContactID] {
		return errors.New("stale contact")
	}
	m.saved = append(m.saved, c.ContactID)
	return nil
}

type mockFlagSink struct {
	flagged [][]string
}

func (m *mockFlagSink) FlagAgents(_ context.Context, ids []string) error {
	m.flagged = append(m.flagged, ids)
	return nil
}

func testEngine() *scoring.Engine {
	w := scoring.DefaultWeights()
	w.Signals = map[string]float64{"has_email": 10}
	return scoring.NewEngine(w)
}

// TestRun_ScoresAndSkips verifies contacts with no profile delta are
// not rewritten.
func TestRun_ScoresAndSkips(t *testing.T) {
	store := &mockContactStore{contacts: []*contact.Contact{
		{ContactID: "c1", AgentIDs: []string{"a1"}, Email: "ada@example.com"},
		{ContactID: "c2", AgentIDs: []string{"a2"}},
	}}
	sink := &mockFlagSink{}
	runner := NewRunner(RunnerConfig{
		Store:          store,
		Engine:         testEngine(),
		Flags:          sink,
		PagesPerSecond: 1000,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Processed != 2 {
		t.Errorf("Processed = %d, want 2", result.Processed)
	}
	if result.Scored != 1 {
		t.Errorf("Scored = %d, want 1", result.Scored)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if len(store.saved) != 1 || store.saved[0] != "c1" {
		t.Errorf("saved = %v, want [c1]", store.saved)
	}
	if len(sink.flagged) != 1 {
		t.Fatalf("flag calls = %d, want 1", len(sink.flagged))
	}
}

// TestRun_SaveFailureIsolated verifies one failing save does not abort
// the run.
func TestRun_SaveFailureIsolated(t *testing.T) {
	store := &mockContactStore{
		contacts: []*contact.Contact{
			{ContactID: "c1", AgentIDs: []string{"a1"}, Email: "a@example.com"},
			{ContactID: "c2", AgentIDs: []string{"a2"}, Email: "b@example.com"},
		},
		failIDs: map[string]bool{"c1": true},
	}
	runner := NewRunner(RunnerConfig{
		Store:          store,
		Engine:         testEngine(),
		Flags:          &mockFlagSink{},
		PagesPerSecond: 1000,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Scored != 1 {
		t.Errorf("Scored = %d, want 1", result.Scored)
	}
}
