package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"server/internal/domain"
)

const (
	// OpenRouterName is the provider key for the chat-completions backend.
	OpenRouterName = "openrouter"

	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterModel   = "google/gemini-2.5-flash-image-preview"
	openRouterEnvVar  = "OPENROUTER_API_KEY"

	base64Marker = "base64,"
)

// OpenRouterOptions configures the OpenRouter adapter.
type OpenRouterOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenRouter generates images through a chat completion with an image
// modality. The image arrives embedded in the message in one of several
// layouts, so the raw response goes through the normalizer.
type OpenRouter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	store   Store
}

// NewOpenRouter wires the adapter to its file store.
func NewOpenRouter(opts OpenRouterOptions, store Store) *OpenRouter {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	model := opts.Model
	if model == "" {
		model = openRouterModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OpenRouter{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  client,
		store:   store,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

func (o *OpenRouter) Name() string { return OpenRouterName }

// Generate requests a multimodal completion, normalizes the response into a
// data URI, decodes it and persists the bytes.
func (o *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", &domain.CredentialError{Var: openRouterEnvVar}
	}
	payload := chatRequest{
		Model:      o.model,
		Messages:   []chatMessage{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openrouter: status %d: %s", resp.StatusCode, strings.TrimSpace(dump(raw)))
	}
	uris, err := ExtractImageDataURIs(raw)
	if err != nil {
		return "", err
	}
	dataURI := uris[0]
	idx := strings.Index(dataURI, base64Marker)
	if idx < 0 {
		return "", &domain.NoImageError{Dump: dump([]byte(dataURI))}
	}
	data, err := base64.StdEncoding.DecodeString(dataURI[idx+len(base64Marker):])
	if err != nil {
		return "", fmt.Errorf("openrouter: decode image payload: %w", err)
	}
	return o.store.SaveImage(OpenRouterName, prompt, data)
}

var _ Generator = (*OpenRouter)(nil)
