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

package scoring

import (
	"fmt"

	"github.com/risehq/scout/internal/contact"
)

// Engine maps named signals to score deltas and applies them to
// contacts, enforcing the configured score ceiling.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine over an already-validated weight table.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// ProcessSignal looks up the signal's configured weight and applies it
// to the contact with an audited reason. An unmapped or zero-weighted
// signal is a no-op returning 0, not an error.
//
// The score is clamped to the cap after the add, so a delta that would
// overshoot is silently truncated. The return value is the raw applied
// delta, pre-clamp.
func (e *Engine) ProcessSignal(c *contact.Contact, signal Signal, detail string) float64 {
	points := e.weights.Signals[string(signal)]
	if points == 0 {
		return 0
	}

	reason := contact.NewScoreReason(string(signal), points, signal.Category(), detail)
	c.ApplyScoreDelta(points, reason)
	c.Score = min(c.Score, e.weights.ScoreCap)
	return points
}

// ComputeProfileSignals evaluates the profile-completeness signals in
// fixed order (preferences, email, phone, multi-agent) and returns the
// summed deltas. The order only matters for reason recency: multi-agent
// ends up freshest.
func (e *Engine) ComputeProfileSignals(c *contact.Contact) float64 {
	var total float64

	if c.Preferences.IsComplete() {
		total += e.ProcessSignal(c, PreferencesComplete, "All required preferences set")
	}
	if c.Email != "" {
		total += e.ProcessSignal(c, HasEmail, c.Email)
	}
	if c.Phone != "" {
		total += e.ProcessSignal(c, HasPhone, c.Phone)
	}
	if len(c.AgentIDs) > 1 {
		total += e.ProcessSignal(c, MultiAgent, fmt.Sprintf("%d agents", len(c.AgentIDs)))
	}

	return total
}
