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

// Package queue consumes change records from Redis lists, one list per
// upstream topic. Records are dispatched to a sharded worker pool keyed
// by the record's partition key, so two records for the same contact
// are never processed concurrently. Each record fails or succeeds on
// its own: one bad record is counted and dropped without touching its
// batch siblings.
package queue

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/risehq/scout/internal/metrics"
)

// popTimeout bounds each blocking pop so shutdown is responsive.
const popTimeout = 5 * time.Second

// Record is the wire envelope of one queue entry. ID deduplicates
// redeliveries; Key chooses the processing shard (the upstream sets it
// to the contact or listing id the record is about).
type Record struct {
	ID      string          `json:"id"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one decoded record payload.
type Handler func(ctx context.Context, payload []byte) error

// Debouncer drops records already seen within the redelivery window.
// Forget releases a record id whose processing failed, so the queue's
// redelivery gets through.
type Debouncer interface {
	ShouldProcess(ctx context.Context, recordID string) (bool, error)
	Forget(ctx context.Context, recordID string) error
}

// Consumer drains one or more record queues into handlers.
type Consumer struct {
	rdb      *redis.Client
	guard    Debouncer
	handlers map[string]Handler
	shards   int

	tasks    []chan task
	readerWg sync.WaitGroup
	shardWg  sync.WaitGroup
	cancel   context.CancelFunc
}

type task struct {
	queue    string
	recordID string
	handler  Handler
	payload  []byte
}

// Config holds consumer dependencies.
type Config struct {
	Redis    *redis.Client
	Guard    Debouncer
	Handlers map[string]Handler // queue name → handler
	Shards   int
}

// NewConsumer creates a consumer. Shards defaults to 8.
func NewConsumer(cfg Config) *Consumer {
	shards := cfg.Shards
	if shards <= 0 {
		shards = 8
	}
	return &Consumer{
		rdb:      cfg.Redis,
		guard:    cfg.Guard,
		handlers: cfg.Handlers,
		shards:   shards,
	}
}

// Start launches the shard workers and one reader per queue. It
// returns immediately; processing continues until Stop or context
// cancellation.
func (c *Consumer) Start(ctx context.Context) {
	readCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Shard workers run on the parent context so records already
	// accepted off the queue finish (or fail and release their
	// debounce mark) even while Stop is cancelling the readers.
	c.tasks = make([]chan task, c.shards)
	for i := range c.tasks {
		c.tasks[i] = make(chan task, 16)
		c.shardWg.Add(1)
		go c.runShard(ctx, c.tasks[i])
	}

	for queueName, handler := range c.handlers {
		c.readerWg.Add(1)
		go c.runReader(readCtx, queueName, handler)
	}

	slog.Info("queue consumer started",
		"queues", len(c.handlers),
		"shards", c.shards,
	)
}

// Stop cancels the readers, then closes the task channels and waits for
// the shards to drain everything already accepted off the queues.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.readerWg.Wait()
	for _, ch := range c.tasks {
		close(ch)
	}
	c.shardWg.Wait()
	slog.Info("queue consumer stopped")
}

// Ping checks the Redis connection.
func (c *Consumer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// runReader pops records off one queue and routes them to shards.
func (c *Consumer) runReader(ctx context.Context, queueName string, handler Handler) {
	defer c.readerWg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		vals, err := c.rdb.BRPop(ctx, popTimeout, queueName).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("queue pop failed", "queue", queueName, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(vals) != 2 {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(vals[1]), &rec); err != nil {
			slog.Warn("malformed queue record", "queue", queueName, "error", err)
			metrics.RecordErrors.WithLabelValues(queueName).Inc()
			continue
		}

		if rec.ID != "" && c.guard != nil {
			fresh, err := c.guard.ShouldProcess(ctx, rec.ID)
			if err != nil {
				slog.Warn("debounce check failed, proceeding", "error", err)
			} else if !fresh {
				slog.Debug("skipping redelivered record",
					"queue", queueName,
					"record_id", rec.ID,
				)
				metrics.RecordsDebounced.WithLabelValues(queueName).Inc()
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case c.tasks[c.shardFor(rec)] <- task{queue: queueName, recordID: rec.ID, handler: handler, payload: rec.Payload}:
		}
	}
}

// runShard executes tasks for one shard sequentially. Records sharing a
// partition key always land on the same shard, which is what serialises
// same-contact mutations. The loop exits when Stop closes the channel,
// after the remaining buffered tasks have run. Handlers get a context
// detached from cancellation so a task accepted before shutdown still
// completes against the stores.
func (c *Consumer) runShard(ctx context.Context, tasks <-chan task) {
	defer c.shardWg.Done()

	handlerCtx := context.WithoutCancel(ctx)
	for t := range tasks {
		if err := t.handler(handlerCtx, t.payload); err != nil {
			slog.Error("record processing failed",
				"queue", t.queue,
				"error", err,
			)
			metrics.RecordErrors.WithLabelValues(t.queue).Inc()
			c.release(handlerCtx, t)
			continue
		}
		metrics.RecordsProcessed.WithLabelValues(t.queue).Inc()
	}
}

// release clears the debounce mark for a failed record so the queue's
// redelivery is processed instead of dropped.
func (c *Consumer) release(ctx context.Context, t task) {
	if t.recordID == "" || c.guard == nil {
		return
	}
	if err := c.guard.Forget(ctx, t.recordID); err != nil {
		slog.Warn("debounce release failed",
			"queue", t.queue,
			"record_id", t.recordID,
			"error", err,
		)
	}
}

// shardFor hashes the record's partition key (falling back to its id)
// onto a shard index.
func (c *Consumer) shardFor(rec Record) int {
	key := rec.Key
	if key == "" {
		key = rec.ID
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(c.shards))
}
