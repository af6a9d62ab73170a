// Package openaichat is the OpenAI-compatible chat-completions adapter.
package openaichat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/WDegan/metafootage-davinci-resolve/internal/ports"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/visionhttp"
)

const (
	modelSpeed   = "gpt-4o-mini"
	modelQuality = "gpt-4o"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  visionhttp.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	return &Adapter{
		key:     apiKey,
		model:   resolveModel(model),
		baseURL: normalizeBaseURL(baseURL),
		client:  visionhttp.Client{Secret: apiKey},
	}
}

func resolveModel(model string) string {
	switch model {
	case "", "speed":
		return modelSpeed
	case "quality":
		return modelQuality
	default:
		return model
	}
}

func (a *Adapter) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	content := make([]map[string]any, 0, len(req.Frames)+1)
	content = append(content, map[string]any{"type": "text", "text": req.Prompt})
	for _, f := range req.Frames {
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(f.JPEG),
			},
		})
	}

	messages := make([]map[string]any, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": content})

	payload := map[string]any{
		"model":           a.model,
		"stream":          false,
		"messages":        messages,
		"temperature":     0.7,
		"response_format": map[string]any{"type": "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.key)

	respBody, err := a.client.Post(ctx, a.baseURL+"/v1/chat/completions", header, body)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", errors.New("openai: empty content")
		}
		return x, nil
	case []any:
		// Some gateways return an array of {type,text} parts.
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
			return "", errors.New("openai: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openai: unexpected content type %T", v)
	}
}
