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
	"os"

	"gopkg.in/yaml.v3"
)

// DecayConfig controls the periodic score decay.
type DecayConfig struct {
	// Rate is the multiplicative factor applied per decay cycle, in [0,1].
	Rate float64 `yaml:"rate"`
	// ReasonRetentionDays is how long score reasons survive decay pruning.
	ReasonRetentionDays int `yaml:"reason_retention_days"`
}

// Weights is the scoring configuration: point value per signal name, the
// decay parameters, and the global score ceiling. Loaded once at process
// start and read-only thereafter.
type Weights struct {
	Signals  map[string]float64 `yaml:"signals"`
	Decay    DecayConfig        `yaml:"decay"`
	ScoreCap float64            `yaml:"score_cap"`
}

// DefaultWeights returns the built-in configuration used when no weights
// file is supplied.
func DefaultWeights() Weights {
	return Weights{
		Signals:  map[string]float64{},
		Decay:    DecayConfig{Rate: 0.95, ReasonRetentionDays: 30},
		ScoreCap: 1000,
	}
}

// LoadWeights reads and validates a weights YAML file. Unknown signal
// names fail fast: a configuration typo would otherwise be
// indistinguishable from an intentionally zero-weighted signal. A known
// signal that is absent (or weighted zero) simply never scores.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights file %s: %w", path, err)
	}

	w := DefaultWeights()
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights YAML: %w", err)
	}

	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("validate weights %s: %w", path, err)
	}
	return w, nil
}

// Validate checks signal names against the known set and bounds on the
// decay and cap parameters.
func (w Weights) Validate() error {
	known := make(map[string]bool, len(AllSignals))
	for _, s := range AllSignals {
		known[string(s)] = true
	}
	for name := range w.Signals {
		if !known[name] {
			return fmt.Errorf("unknown signal %q in weights", name)
		}
	}

	if w.Decay.Rate < 0 || w.Decay.Rate > 1 {
		return fmt.Errorf("decay rate %v out of range [0,1]", w.Decay.Rate)
	}
	if w.Decay.ReasonRetentionDays <= 0 {
		return fmt.Errorf("reason retention days must be positive, got %d", w.Decay.ReasonRetentionDays)
	}
	if w.ScoreCap <= 0 {
		return fmt.Errorf("score cap must be positive, got %v", w.ScoreCap)
	}
	return nil
}
