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

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// stubGuard is a Debouncer that records which ids were released.
type stubGuard struct {
	fresh     bool
	forgotten []string
}

func (g *stubGuard) ShouldProcess(ctx context.Context, recordID string) (bool, error) {
	return g.fresh, nil
}

func (g *stubGuard) Forget(ctx context.Context, recordID string) error {
	g.forgotten = append(g.forgotten, recordID)
	return nil
}

// TestShardFor_Deterministic verifies the same partition key always
// lands on the same shard.
func TestShardFor_Deterministic(t *testing.T) {
	c := NewConsumer(Config{Shards: 8})

	rec := Record{ID: "r1", Key: "contact-42"}
	first := c.shardFor(rec)
	for i := 0; i < 10; i++ {
		if got := c.shardFor(rec); got != first {
			t.Fatalf("shardFor = %d, want stable %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard = %d, out of range", first)
	}
}

// TestShardFor_FallsBackToID verifies records without a partition key
// still shard consistently by id.
func TestShardFor_FallsBackToID(t *testing.T) {
	c := NewConsumer(Config{Shards: 4})

	a := c.shardFor(Record{ID: "r1"})
	b := c.shardFor(Record{ID: "r1"})
	if a != b {
		t.Errorf("shards differ for identical id: %d vs %d", a, b)
	}
}

// TestShardFor_SpreadsKeys is a smoke test that distinct keys do not
// all collapse onto one shard.
func TestShardFor_SpreadsKeys(t *testing.T) {
	c := NewConsumer(Config{Shards: 8})

	seen := make(map[int]bool)
	for i := 0; i < 64; i++ {
		rec := Record{Key: string(rune('a' + i))}
		seen[c.shardFor(rec)] = true
	}
	if len(seen) < 2 {
		t.Errorf("only %d shards used for 64 keys", len(seen))
	}
}

// TestRecordEnvelope verifies the wire shape the upstream producers use.
func TestRecordEnvelope(t *testing.T) {
	raw := []byte(`{"id": "r1", "key": "c42", "payload": {"contact_id": "c42"}}`)

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID != "r1" || rec.Key != "c42" {
		t.Errorf("envelope = %+v", rec)
	}
	if string(rec.Payload) != `{"contact_id": "c42"}` {
		t.Errorf("payload = %s", rec.Payload)
	}
}

// TestNewConsumer_DefaultShards verifies the shard default.
func TestNewConsumer_DefaultShards(t *testing.T) {
	c := NewConsumer(Config{})
	if c.shards != 8 {
		t.Errorf("shards = %d, want 8", c.shards)
	}
}

// TestConsumer_FailedRecordReleasesDebounce verifies that a handler
// failure clears the record's seen mark, so the queue's redelivery of
// the same record is processed instead of dropped for the TTL window.
func TestConsumer_FailedRecordReleasesDebounce(t *testing.T) {
	guard := &stubGuard{fresh: true}
	c := NewConsumer(Config{Guard: guard, Shards: 1})
	c.Start(context.Background())

	fail := func(ctx context.Context, payload []byte) error {
		return errors.New("store unavailable")
	}
	c.tasks[0] <- task{queue: "q", recordID: "r1", handler: fail, payload: []byte(`{}`)}

	ok := func(ctx context.Context, payload []byte) error { return nil }
	c.tasks[0] <- task{queue: "q", recordID: "r2", handler: ok, payload: []byte(`{}`)}

	c.Stop()

	if len(guard.forgotten) != 1 || guard.forgotten[0] != "r1" {
		t.Errorf("forgotten = %v, want [r1]", guard.forgotten)
	}
}

// TestConsumer_StopDrainsBufferedTasks verifies Stop does not return
// until tasks already accepted off the queues have run, even when one
// is still buffered behind a slow record at shutdown.
func TestConsumer_StopDrainsBufferedTasks(t *testing.T) {
	c := NewConsumer(Config{Shards: 1})
	c.Start(context.Background())

	release := make(chan struct{})
	var processed atomic.Int32

	slow := func(ctx context.Context, payload []byte) error {
		<-release
		processed.Add(1)
		return nil
	}
	buffered := func(ctx context.Context, payload []byte) error {
		if ctx.Err() != nil {
			t.Error("handler context cancelled during drain")
		}
		processed.Add(1)
		return nil
	}

	c.tasks[0] <- task{queue: "q", recordID: "r1", handler: slow, payload: []byte(`{}`)}
	c.tasks[0] <- task{queue: "q", recordID: "r2", handler: buffered, payload: []byte(`{}`)}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	c.Stop()

	if got := processed.Load(); got != 2 {
		t.Errorf("processed = %d records before Stop returned, want 2", got)
	}
}
