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

package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/risehq/scout/internal/contact"
)

// TestEmbed verifies the request shape and vector decoding.
func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %q, want /v1/embeddings", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "embed-v2" {
			t.Errorf("model = %q, want embed-v2", req["model"])
		}
		if req["input"] != "Ada Austin" {
			t.Errorf("input = %q, want Ada Austin", req["input"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{0.1, 0.2, 0.3},
		})
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "embed-v2")

	vec, err := client.Embed(context.Background(), "Ada Austin")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
}

// TestEmbed_EmptyVectorIsError verifies a 200 with no vector fails.
func TestEmbed_EmptyVectorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": []}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "embed-v2")

	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for empty vector")
	}
}

// TestEmbed_BreakerOpensAfterConsecutiveFailures verifies the circuit
// trips after three failures and fails fast thereafter.
func TestEmbed_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.Client(), server.URL, "embed-v2")

	for i := 0; i < 5; i++ {
		if _, err := client.Embed(context.Background(), "text"); err == nil {
			t.Fatal("expected error from failing backend")
		}
	}

	// Calls after the trip never reach the backend.
	if hits != 3 {
		t.Errorf("backend hits = %d, want 3", hits)
	}
}

// TestGenerateInsight verifies prompt construction and trimmed output.
func TestGenerateInsight(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("path = %q, want /v1/completions", r.URL.Path)
		}
		var req struct {
			Prompt    string `json:"prompt"`
			MaxTokens int    `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt = req.Prompt
		if req.MaxTokens != 150 {
			t.Errorf("max_tokens = %d, want 150", req.MaxTokens)
		}
		w.Write([]byte(`{"text": "  Reach out about the price drop.  "}`))
	}))
	defer server.Close()

	client := NewInsightClient(server.Client(), server.URL, "llm-v1")

	c := &contact.Contact{ContactID: "c1", FirstName: "Ada", LastName: "Lovelace", Score: 120}
	c.ScoreReasons = []contact.ScoreReason{
		contact.NewScoreReason("price_drop_match", 20, "market", "Price $450,000"),
	}

	insight, err := client.GenerateInsight(context.Background(), c)
	if err != nil {
		t.Fatalf("GenerateInsight: %v", err)
	}
	if insight != "Reach out about the price drop." {
		t.Errorf("insight = %q", insight)
	}
	if !strings.Contains(gotPrompt, "Ada Lovelace") {
		t.Errorf("prompt missing contact name: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "price_drop_match: Price $450,000 (+20pts)") {
		t.Errorf("prompt missing signal line: %q", gotPrompt)
	}
}
