// Package openrouter implements the cut decision service on top of the
// OpenRouter chat completions API. One request per retake cluster: the
// transcript excerpt goes in, a mistake start time comes back as strict JSON.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/retakecut/retakecut/internal/ports"
)

var _ ports.CutAdvisor = (*Adapter)(nil)

const requestTimeout = 60 * time.Second

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) ProposeMistakeStart(ctx context.Context, req ports.AdvisorRequest) (ports.AdvisorProposal, error) {
	type promptWord struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	type promptMarker struct {
		Phrase string  `json:"phrase"`
		Start  float64 `json:"start"`
		End    float64 `json:"end"`
	}

	words := make([]promptWord, 0, len(req.Excerpt))
	for _, w := range req.Excerpt {
		words = append(words, promptWord{Word: w.Word, Start: w.Start, End: w.End})
	}
	markers := make([]promptMarker, 0, len(req.Markers))
	for _, m := range req.Markers {
		markers = append(markers, promptMarker{Phrase: m.Phrase, Start: m.Start, End: m.End})
	}

	prompt := map[string]any{
		"excerpt_start": req.ExcerptStart,
		"excerpt_end":   req.ExcerptEnd,
		"pattern":       string(req.Pattern),
		"markers":       markers,
		"words":         words,
	}
	pb, err := json.Marshal(prompt)
	if err != nil {
		return ports.AdvisorProposal{}, fmt.Errorf("marshal prompt: %w", err)
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": string(buildPrompt(pb))},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "retakecut_mistake_start",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"mistake_start_time": map[string]any{"type": "number"},
						"reason":             map[string]any{"type": "string"},
						"confidence":         map[string]any{"type": "number"},
					},
					"required": []string{"mistake_start_time", "reason", "confidence"},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.AdvisorProposal{}, fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return ports.AdvisorProposal{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return ports.AdvisorProposal{}, fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return ports.AdvisorProposal{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return ports.AdvisorProposal{}, fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return ports.AdvisorProposal{}, fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ports.AdvisorProposal{}, err
	}
	if len(raw.Choices) == 0 {
		return ports.AdvisorProposal{}, errors.New("openrouter: empty choices")
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return ports.AdvisorProposal{}, err
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return ports.AdvisorProposal{}, err
	}

	var out struct {
		MistakeStartTime float64 `json:"mistake_start_time"`
		Reason           string  `json:"reason"`
		Confidence       float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return ports.AdvisorProposal{}, fmt.Errorf("openrouter: bad response JSON: %w", err)
	}

	return ports.AdvisorProposal{
		MistakeStart: out.MistakeStartTime,
		Reason:       strings.TrimSpace(out.Reason),
		Confidence:   out.Confidence,
	}, nil
}

func buildPrompt(clusterJSON []byte) []byte {
	return []byte(
		"You are reviewing a screen-recording transcript where the speaker says a retake marker " +
			"phrase (such as \"cut cut\") after flubbing a take. The markers list gives the marker " +
			"timestamps; the words list is the transcript excerpt around them with per-word timing. " +
			"Identify where the flubbed content begins: the timestamp of the first word of the take " +
			"the speaker is redoing. It must be strictly before the first marker. " +
			"Return strictly valid JSON (no markdown, no code fences) matching the provided schema: " +
			"mistake_start_time in seconds, a short reason, and a confidence between 0 and 1." +
			"\n\nCluster JSON:\n" + string(clusterJSON),
	)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
