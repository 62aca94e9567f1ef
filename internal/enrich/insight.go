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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/risehq/scout/internal/contact"
)

// insightSignals is how many recent reasons feed the insight prompt.
const insightSignals = 5

// InsightClient calls the LLM insight service over HTTP.
type InsightClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	breaker    *gobreaker.CircuitBreaker
}

// NewInsightClient creates an insight client. httpClient should carry
// the OAuth2 client-credentials transport.
func NewInsightClient(httpClient *http.Client, baseURL, model string) *InsightClient {
	return &InsightClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
		breaker:    newBreaker("insight"),
	}
}

type insightRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type insightResponse struct {
	Text string `json:"text"`
}

// GenerateInsight produces a 1-2 sentence actionable insight for the
// contact from its recent score activity.
func (c *InsightClient) GenerateInsight(ctx context.Context, con *contact.Contact) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, con)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *InsightClient) generate(ctx context.Context, con *contact.Contact) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(insightRequest{
		Model:     c.model,
		Prompt:    buildPrompt(con),
		MaxTokens: 150,
	})
	if err != nil {
		return "", fmt.Errorf("marshal insight request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("insight request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("insight request returned %d: %s", resp.StatusCode, data)
	}

	var out insightResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode insight response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// buildPrompt summarises the contact's recent scoring activity for the
// model.
func buildPrompt(con *contact.Contact) string {
	reasons := con.ScoreReasons
	if len(reasons) > insightSignals {
		reasons = reasons[:insightSignals]
	}

	var recent []string
	for _, r := range reasons {
		recent = append(recent, fmt.Sprintf("%s: %s (%+.0fpts)", r.Signal, r.Detail, r.Points))
	}

	return fmt.Sprintf(
		"You are a real estate assistant. Given the following contact activity, "+
			"write a 1-2 sentence actionable insight for their agent.\n\n"+
			"Contact: %s\nScore: %.0f\nRecent signals: %s\n\nInsight:",
		con.DisplayName(), con.Score, strings.Join(recent, "; "),
	)
}
