// Package gemini is the Google Gemini generateContent adapter.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/WDegan/metafootage-davinci-resolve/internal/ports"
	"github.com/WDegan/metafootage-davinci-resolve/internal/ports/adapters/visionhttp"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Model aliases: callers pick speed or quality, the adapter owns the mapping
// to concrete model names.
const (
	modelSpeed   = "gemini-2.5-flash"
	modelQuality = "gemini-3-pro-preview"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  visionhttp.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		key:     apiKey,
		model:   resolveModel(model),
		baseURL: baseURL,
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

// responseSchema constrains the model to the structured metadata shape.
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"short_desc": map[string]any{"type": "STRING", "description": "Brief one-sentence description (max 100 chars)"},
		"long_desc":  map[string]any{"type": "STRING", "description": "Detailed paragraph describing the shot, camera work, and story potential"},
		"subjects":   map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}, "description": "List of visible subjects"},
		"actions":    map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}, "description": "List of actions or movements"},
		"camera":     map[string]any{"type": "STRING", "description": "Camera movement and framing description"},
		"lighting":   map[string]any{"type": "STRING", "description": "Lighting quality and characteristics"},
		"setting":    map[string]any{"type": "STRING", "description": "Location and environment description"},
		"emotion":    map[string]any{"type": "STRING", "description": "Emotional tone and mood"},
		"keywords":   map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}, "description": "Searchable keywords for this shot"},
	},
	"required": []string{"short_desc", "long_desc", "subjects", "actions", "camera", "lighting", "setting", "emotion", "keywords"},
}

func (a *Adapter) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	parts := make([]map[string]any, 0, len(req.Frames)+1)
	parts = append(parts, map[string]any{"text": req.Prompt})
	for _, f := range req.Frames {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": "image/jpeg",
				"data":      base64.StdEncoding.EncodeToString(f.JPEG),
			},
		})
	}

	payload := map[string]any{
		"contents": []map[string]any{{"parts": parts}},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema,
			"temperature":      0.7,
		},
	}
	if req.System != "" {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": req.System}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		a.baseURL, a.model, url.QueryEscape(a.key))

	respBody, err := a.client.Post(ctx, endpoint, nil, body)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var raw struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(raw.Candidates) == 0 || len(raw.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	var b strings.Builder
	for _, p := range raw.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty candidate text")
	}
	return text, nil
}
