package prompt

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

const (
	gigaChatAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatModel   = "GigaChat"
	gigaChatScope   = "GIGACHAT_API_PERS"
	gigaChatEnvVar  = "GIGACHAT_AUTH_KEY"

	// tokenLeeway refreshes the access token slightly before the server
	// expires it.
	tokenLeeway = time.Minute
)

// GigaChatOptions configures the GigaChat client. Zero values fall back to
// the production endpoints, the base model and the personal API scope.
type GigaChatOptions struct {
	AuthKey    string
	Model      string
	AuthURL    string
	BaseURL    string
	Scope      string
	HTTPClient *http.Client
}

// GigaChatClient issues text completions against the GigaChat API. Access
// tokens are exchanged lazily from the authorization key and cached until
// shortly before expiry.
type GigaChatClient struct {
	authKey string
	model   string
	authURL string
	baseURL string
	scope   string
	client  *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewGigaChatClient builds a client from options. The default transport
// skips TLS verification because the GigaChat endpoints present a
// certificate chain rooted in a non-standard CA; pass a custom HTTPClient
// to enforce verification.
func NewGigaChatClient(opts GigaChatOptions) *GigaChatClient {
	authURL := strings.TrimSpace(opts.AuthURL)
	if authURL == "" {
		authURL = gigaChatAuthURL
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = gigaChatBaseURL
	}
	model := opts.Model
	if model == "" {
		model = gigaChatModel
	}
	scope := opts.Scope
	if scope == "" {
		scope = gigaChatScope
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return &GigaChatClient{
		authKey: strings.TrimSpace(opts.AuthKey),
		model:   model,
		authURL: authURL,
		baseURL: baseURL,
		scope:   scope,
		client:  client,
	}
}

type gigaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gigaChatRequest struct {
	Model    string            `json:"model"`
	Messages []gigaChatMessage `json:"messages"`
}

type gigaChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type gigaChatToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
}

// Chat sends a single user prompt and returns the completion text.
func (c *GigaChatClient) Chat(ctx context.Context, userPrompt string) (string, error) {
	if c.authKey == "" {
		return "", &domain.CredentialError{Var: gigaChatEnvVar}
	}
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	payload := gigaChatRequest{
		Model:    c.model,
		Messages: []gigaChatMessage{{Role: "user", Content: userPrompt}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gigachat: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gigachat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gigachat: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gigachat: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gigachat: status %d", resp.StatusCode)
	}
	var out gigaChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("gigachat: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("gigachat: no choices in response")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("gigachat: empty completion")
	}
	return text, nil
}

// token returns a cached access token or exchanges the authorization key for
// a fresh one.
func (c *GigaChatClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-tokenLeeway)) {
		return c.accessToken, nil
	}

	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("gigachat: build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+c.authKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gigachat: auth: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gigachat: auth status %d", resp.StatusCode)
	}
	var token gigaChatToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("gigachat: decode auth response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("gigachat: auth returned no token")
	}
	c.accessToken = token.AccessToken
	c.expiresAt = time.UnixMilli(token.ExpiresAt)
	return c.accessToken, nil
}
