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
	"time"

	"github.com/risehq/scout/internal/contact"
)

// DecayCalculator shrinks contact scores between signals and prunes
// score reasons past the retention window. Safe to invoke repeatedly:
// a zero score stays zero, a positive score converges toward zero for
// rates below one, and the score never goes negative.
type DecayCalculator struct {
	rate          float64
	retentionDays int
}

// NewDecayCalculator builds a calculator from the decay section of the
// weight configuration.
func NewDecayCalculator(weights Weights) *DecayCalculator {
	return &DecayCalculator{
		rate:          weights.Decay.Rate,
		retentionDays: weights.Decay.ReasonRetentionDays,
	}
}

// Apply decays a single contact. No-op when the score is already zero.
func (d *DecayCalculator) Apply(c *contact.Contact) {
	if c.Score <= 0 {
		return
	}

	c.ApplyDecay(d.rate)
	d.pruneOldReasons(c)
}

// pruneOldReasons keeps exactly the reasons newer than the retention
// cutoff, preserving order.
func (d *DecayCalculator) pruneOldReasons(c *contact.Contact) {
	cutoff := time.Now().UTC().AddDate(0, 0, -d.retentionDays)

	kept := c.ScoreReasons[:0]
	for _, r := range c.ScoreReasons {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	c.ScoreReasons = kept
}
