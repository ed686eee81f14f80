package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible chat/completions endpoint and turns
// replies into auction decisions.
type Client struct {
	cfg  apiConfig
	http *http.Client
}

// FromEnv resolves provider, key and base URL from the environment. An empty
// model falls back to OPENAI_MODEL / OPENROUTER_MODEL.
func FromEnv(model string) (*Client, error) {
	cfg, err := resolveAPIConfig(model)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: 45 * time.Second}}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Complete sends one system+user exchange and returns the reply text. A nil
// schema asks for plain JSON object mode.
func (c *Client) Complete(ctx context.Context, system, user, schemaName string, schema map[string]any) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if c.cfg.MaxOutputTokens > 0 {
		payload["max_tokens"] = c.cfg.MaxOutputTokens
	}
	if c.cfg.ReasoningEffort != "" {
		payload["reasoning"] = map[string]any{"effort": c.cfg.ReasoningEffort}
	}
	if c.cfg.Temperature != nil {
		payload["temperature"] = *c.cfg.Temperature
	}
	if schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   coalesce(schemaName, "structured"),
				"strict": true,
				"schema": schema,
			},
		}
	} else {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	setHeaderPreserveCase(req.Header, c.cfg.HeaderName, c.cfg.HeaderPrefix+c.cfg.APIKey)
	if c.cfg.Organization != "" {
		req.Header.Set("OpenAI-Organization", c.cfg.Organization)
	}
	for k, v := range c.cfg.ExtraHeaders {
		setHeaderPreserveCase(req.Header, k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	body := buf.Bytes()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat http %d: %s", resp.StatusCode, truncate(string(body), 800))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return cc.Choices[0].Message.Content, nil
}

// ChooseBid asks for a bid in [0, maxBid]. The raw reply is returned for logging.
func (c *Client) ChooseBid(ctx context.Context, system, user string, maxBid int) (int, string, error) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"bid": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     maxBid,
				"description": "Sealed bid in coins; 0 passes",
			},
		},
		"required": []string{"bid"},
	}
	raw, parsed, err := c.completeJSON(ctx, system, user, "gem_bid", schema)
	if err != nil {
		return 0, raw, err
	}
	bid, ok := coerceInt(parsed["bid"])
	if !ok || bid < 0 || bid > maxBid {
		return 0, raw, fmt.Errorf("bid out of range in reply: %s", truncate(raw, 200))
	}
	return bid, raw, nil
}

// ChooseReveal asks for one of ids.
func (c *Client) ChooseReveal(ctx context.Context, system, user string, ids []string) (string, string, error) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"card_id": map[string]any{
				"type":        "string",
				"enum":        ids,
				"description": "Id of the hidden info card to reveal",
			},
		},
		"required": []string{"card_id"},
	}
	raw, parsed, err := c.completeJSON(ctx, system, user, "info_reveal", schema)
	if err != nil {
		return "", raw, err
	}
	id, _ := parsed["card_id"].(string)
	id = strings.TrimSpace(id)
	for _, want := range ids {
		if want == id {
			return id, raw, nil
		}
	}
	return "", raw, fmt.Errorf("unknown card in reply: %s", truncate(raw, 200))
}

func (c *Client) completeJSON(ctx context.Context, system, user, name string, schema map[string]any) (string, map[string]any, error) {
	text, err := c.Complete(ctx, system, user, name, schema)
	if err != nil {
		return text, nil, err
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return raw, nil, errors.New("empty response")
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		cleaned := extractJSONObject(raw)
		if cleaned == "" {
			return raw, nil, err
		}
		if err2 := json.Unmarshal([]byte(cleaned), &parsed); err2 != nil {
			return raw, nil, err
		}
	}
	return raw, parsed, nil
}

// setHeaderPreserveCase writes key exactly as given (OpenRouter reads HTTP-Referer
// verbatim); canonical keys go through Set. Blank keys or values are skipped.
func setHeaderPreserveCase(h http.Header, key, value string) {
	key = strings.TrimSpace(key)
	if key == "" || strings.TrimSpace(value) == "" {
		return
	}
	if http.CanonicalHeaderKey(key) == key {
		h.Set(key, value)
		return
	}
	h[key] = []string{value}
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func coalesce(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}
