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

// Package refresh provides the shared refresh-flag set: a Redis SET of
// agent ids whose summary card is stale. Multiple producers flag
// concurrently; SADD gives the required merge-by-union semantics.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/risehq/scout/internal/metrics"
)

// flagKey is the Redis key holding the flagged agent set.
const flagKey = "scout:refresh_flags"

// FlagStore accumulates per-agent refresh flags in Redis.
type FlagStore struct {
	rdb *redis.Client
}

// NewFlagStore creates a flag store backed by Redis.
func NewFlagStore(rdb *redis.Client) *FlagStore {
	return &FlagStore{rdb: rdb}
}

// FlagAgents unions the given agent ids into the flag set. Flagging an
// already-flagged agent is a no-op, so the call is idempotent.
func (f *FlagStore) FlagAgents(ctx context.Context, agentIDs []string) error {
	if len(agentIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(agentIDs))
	for i, id := range agentIDs {
		members[i] = id
	}

	if err := f.rdb.SAdd(ctx, flagKey, members...).Err(); err != nil {
		return fmt.Errorf("flag agents SADD: %w", err)
	}

	metrics.AgentsFlagged.Add(float64(len(agentIDs)))
	slog.Debug("agents flagged for refresh", "count", len(agentIDs))
	return nil
}

// PopFlaggedAgents atomically reads and clears the flag set. The
// SMEMBERS+DEL pair runs inside MULTI/EXEC so a concurrent producer's
// flags either appear in this pop or survive for the next one.
func (f *FlagStore) PopFlaggedAgents(ctx context.Context) ([]string, error) {
	pipe := f.rdb.TxPipeline()
	members := pipe.SMembers(ctx, flagKey)
	pipe.Del(ctx, flagKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pop flagged agents: %w", err)
	}

	agentIDs := members.Val()
	if len(agentIDs) > 0 {
		slog.Info("flagged agents popped", "count", len(agentIDs))
	}
	return agentIDs, nil
}

// Ping checks the Redis connection.
func (f *FlagStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return f.rdb.Ping(ctx).Err()
}
