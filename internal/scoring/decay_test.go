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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/risehq/scout/internal/contact"
)

func TestDecay_ShrinksScore(t *testing.T) {
	calc := NewDecayCalculator(DefaultWeights())
	c := &contact.Contact{ContactID: "c1", Score: 100}

	calc.Apply(c)

	assert.InDelta(t, 95.0, c.Score, 1e-9)
}

func TestDecay_SkipsZeroScore(t *testing.T) {
	calc := NewDecayCalculator(DefaultWeights())
	c := &contact.Contact{ContactID: "c1", Score: 0}
	before := c.UpdatedAt

	calc.Apply(c)

	assert.Equal(t, 0.0, c.Score)
	assert.Equal(t, before, c.UpdatedAt)
}

func TestDecay_ConvergesTowardZero(t *testing.T) {
	calc := NewDecayCalculator(DefaultWeights())
	c := &contact.Contact{ContactID: "c1", Score: 100}

	for i := 0; i < 200; i++ {
		calc.Apply(c)
	}

	assert.Less(t, c.Score, 0.01)
	assert.GreaterOrEqual(t, c.Score, 0.0)
}

func TestDecay_PrunesExpiredReasons(t *testing.T) {
	w := DefaultWeights()
	w.Decay.ReasonRetentionDays = 30
	calc := NewDecayCalculator(w)

	fresh := contact.NewScoreReason("listing_view", 10, "engagement", "recent")
	fresh.Timestamp = time.Now().UTC().AddDate(0, 0, -5)
	stale := contact.NewScoreReason("listing_view", 10, "engagement", "ancient")
	stale.Timestamp = time.Now().UTC().AddDate(0, 0, -45)

	c := &contact.Contact{
		ContactID:    "c1",
		Score:        50,
		ScoreReasons: []contact.ScoreReason{fresh, stale},
	}

	calc.Apply(c)

	require.Len(t, c.ScoreReasons, 1)
	assert.Equal(t, "recent", c.ScoreReasons[0].Detail)
}

func TestDecay_RateOneIsStable(t *testing.T) {
	w := DefaultWeights()
	w.Decay.Rate = 1.0
	calc := NewDecayCalculator(w)
	c := &contact.Contact{ContactID: "c1", Score: 42}

	calc.Apply(c)

	assert.Equal(t, 42.0, c.Score)
}
