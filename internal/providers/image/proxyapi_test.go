package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"server/internal/domain"
)

// memStore records SaveImage calls without touching the filesystem.
type memStore struct {
	provider string
	prompt   string
	data     []byte
	saves    int
	err      error
}

func (m *memStore) SaveImage(provider, prompt string, data []byte) (string, error) {
	m.saves++
	m.provider = provider
	m.prompt = prompt
	m.data = append([]byte(nil), data...)
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join("generated_images", provider, "20240101_000000_test.png"), nil
}

func TestProxyAPIGenerate(t *testing.T) {
	t.Parallel()
	var gotPath, gotAuth string
	var gotBody imagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		payload := base64.StdEncoding.EncodeToString([]byte("fake-png"))
		fmt.Fprintf(w, `{"data":[{"b64_json":%q}]}`, payload)
	}))
	defer srv.Close()

	store := &memStore{}
	gen := NewProxyAPI(ProxyAPIOptions{APIKey: "secret", BaseURL: srv.URL}, store)

	path, err := gen.Generate(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path == "" {
		t.Fatal("Generate returned empty path")
	}
	if gotPath != "/images/generations" {
		t.Fatalf("request path = %q, want %q", gotPath, "/images/generations")
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotBody.Model != proxyAPIModel {
		t.Fatalf("model = %q, want %q", gotBody.Model, proxyAPIModel)
	}
	if gotBody.Prompt != "a cat" {
		t.Fatalf("prompt = %q, want %q", gotBody.Prompt, "a cat")
	}
	if store.provider != ProxyAPIName {
		t.Fatalf("saved provider = %q, want %q", store.provider, ProxyAPIName)
	}
	if string(store.data) != "fake-png" {
		t.Fatalf("saved bytes = %q, want %q", store.data, "fake-png")
	}
}

func TestProxyAPIGenerateMissingCredential(t *testing.T) {
	t.Parallel()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	gen := NewProxyAPI(ProxyAPIOptions{BaseURL: srv.URL}, &memStore{})
	_, err := gen.Generate(context.Background(), "a cat")
	var credErr *domain.CredentialError
	if !errors.As(err, &credErr) {
		t.Fatalf("err = %v, want *domain.CredentialError", err)
	}
	if credErr.Var != "PROXY_API" {
		t.Fatalf("Var = %q, want %q", credErr.Var, "PROXY_API")
	}
	if calls != 0 {
		t.Fatalf("remote called %d times before credential check", calls)
	}
}

func TestProxyAPIGenerateRemoteFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &memStore{}
	gen := NewProxyAPI(ProxyAPIOptions{APIKey: "secret", BaseURL: srv.URL}, store)
	if _, err := gen.Generate(context.Background(), "a cat"); err == nil {
		t.Fatal("Generate did not propagate the remote failure")
	}
	if store.saves != 0 {
		t.Fatalf("SaveImage called %d times on failure", store.saves)
	}
}

func TestProxyAPIGenerateEmptyData(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	gen := NewProxyAPI(ProxyAPIOptions{APIKey: "secret", BaseURL: srv.URL}, &memStore{})
	_, err := gen.Generate(context.Background(), "a cat")
	var noImage *domain.NoImageError
	if !errors.As(err, &noImage) {
		t.Fatalf("err = %v, want *domain.NoImageError", err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	proxy := NewProxyAPI(ProxyAPIOptions{APIKey: "a"}, store)
	router := NewOpenRouter(OpenRouterOptions{APIKey: "b"}, store)
	reg := NewRegistry(proxy, router)

	g, err := reg.ForProvider("proxyapi")
	if err != nil {
		t.Fatalf("ForProvider(proxyapi): %v", err)
	}
	if g.Name() != ProxyAPIName {
		t.Fatalf("Name = %q, want %q", g.Name(), ProxyAPIName)
	}

	if _, err := reg.ForProvider("dalle"); !errors.Is(err, domain.ErrUnknownProvider) {
		t.Fatalf("err = %v, want domain.ErrUnknownProvider", err)
	}

	providers := reg.Providers()
	if len(providers) != 2 || providers[0] != ProxyAPIName || providers[1] != OpenRouterName {
		t.Fatalf("Providers() = %v, want [proxyapi openrouter]", providers)
	}
}
