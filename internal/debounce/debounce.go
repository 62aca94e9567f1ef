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

// Package debounce guards against reprocessing redelivered records
// using a Redis SETNX with TTL. The upstream queue is at-least-once,
// so the same record id can arrive more than once within a window.
package debounce

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a record id is remembered. Redeliveries
	// arrive within minutes; a day leaves comfortable margin.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces debounce keys in Redis.
	keyPrefix = "scout:seen:"
)

// Guard tracks which record ids have already been processed.
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGuard creates a debounce guard backed by Redis.
func NewGuard(rdb *redis.Client) *Guard {
	return &Guard{
		rdb: rdb,
		ttl: DefaultTTL,
	}
}

// ShouldProcess returns true if the record id has NOT been seen within
// the TTL window. If true, the id is marked as seen atomically (SETNX).
func (g *Guard) ShouldProcess(ctx context.Context, recordID string) (bool, error) {
	key := keyPrefix + recordID

	set, err := g.rdb.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("debounce SETNX: %w", err)
	}
	return set, nil
}

// Forget clears the seen mark for a record id. Called when processing
// fails so the queue's redelivery of the same record is not dropped.
func (g *Guard) Forget(ctx context.Context, recordID string) error {
	if err := g.rdb.Del(ctx, keyPrefix+recordID).Err(); err != nil {
		return fmt.Errorf("debounce DEL: %w", err)
	}
	return nil
}
