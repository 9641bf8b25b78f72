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
	// ProxyAPIName is the provider key for the direct image generation
	// backend. It is the default when a request names no provider.
	ProxyAPIName = "proxyapi"

	proxyAPIBaseURL = "https://api.proxyapi.ru/openai/v1"
	proxyAPIModel   = "gpt-image-1"
	proxyAPIEnvVar  = "PROXY_API"
)

// ProxyAPIOptions configures the ProxyAPI adapter. Zero values fall back to
// the production endpoint and model.
type ProxyAPIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// ProxyAPI generates images through an OpenAI-compatible images endpoint.
// The payload comes back as base64 directly in the response, so no
// normalization is involved.
type ProxyAPI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	store   Store
}

// NewProxyAPI wires the adapter to its file store.
func NewProxyAPI(opts ProxyAPIOptions, store Store) *ProxyAPI {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = proxyAPIBaseURL
	}
	model := opts.Model
	if model == "" {
		model = proxyAPIModel
	}
	client := opts.HTTPClient
	if client == nil {
		// No timeout on purpose: image generation regularly runs for
		// minutes and the pipeline has no cancellation path.
		client = &http.Client{}
	}
	return &ProxyAPI{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  client,
		store:   store,
	}
}

type imagesRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (p *ProxyAPI) Name() string { return ProxyAPIName }

// Generate issues one image generation request and persists the decoded
// result. A missing credential fails before any network I/O.
func (p *ProxyAPI) Generate(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", &domain.CredentialError{Var: proxyAPIEnvVar}
	}
	body, err := json.Marshal(imagesRequest{Model: p.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("proxyapi: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("proxyapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxyapi: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("proxyapi: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("proxyapi: status %d: %s", resp.StatusCode, strings.TrimSpace(dump(raw)))
	}
	var out imagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("proxyapi: decode response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return "", &domain.NoImageError{Dump: dump(raw)}
	}
	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("proxyapi: decode image payload: %w", err)
	}
	return p.store.SaveImage(ProxyAPIName, prompt, data)
}

var _ Generator = (*ProxyAPI)(nil)
