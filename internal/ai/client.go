// Package ai drafts forms with an external generative-model collaborator.
// Only the interface boundary lives here: a prompt goes out, strict JSON
// comes back and is parsed into a draft form plus questions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured is returned when generation is requested without an API key.
	ErrNotConfigured = errors.New("ai: generator not configured")
	// ErrBadModelOutput flags a model reply that is not the strict JSON we asked for.
	ErrBadModelOutput = errors.New("ai: model returned unparseable output")
)

// Generator calls a Gemini-style generateContent endpoint.
type Generator struct {
	HTTP    *http.Client
	BaseURL string
	Model   string
	APIKey  string
}

func NewGenerator(baseURL, model, apiKey string) *Generator {
	return &Generator{
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
		Model:   model,
		APIKey:  apiKey,
	}
}

// wire format of the generateContent API, request and response sides
type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text string `json:"text"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends the wrapped prompt and returns the model's raw text reply.
func (g *Generator) Generate(ctx context.Context, userPrompt string) (string, error) {
	if g.APIKey == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(genRequest{
		Contents: []genContent{{Parts: []genPart{{Text: BuildPrompt(userPrompt)}}}},
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ai: generate failed: %s: %s", resp.Status, string(b))
	}

	var out genResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrBadModelOutput
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
