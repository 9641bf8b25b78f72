package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/storage"
)

type fakeRunner struct {
	mu       sync.Mutex
	calls    int
	prompt   string
	style    string
	provider string
}

func (f *fakeRunner) Start(prompt, styleKey, providerKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompt = prompt
	f.style = styleKey
	f.provider = providerKey
}

type fakeTracker struct {
	status domain.GenerationStatus
}

func (f *fakeTracker) Snapshot() domain.GenerationStatus { return f.status }

type fakeStore struct {
	files map[string][]storage.ImageFile
	paths map[string]string
}

func (f *fakeStore) ListRecent(provider string, limit int) ([]storage.ImageFile, error) {
	files, ok := f.files[provider]
	if !ok {
		return nil, nil
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (f *fakeStore) Open(provider, filename string) (string, error) {
	path, ok := f.paths[provider+"/"+filename]
	if !ok {
		return "", errors.New("not found")
	}
	return path, nil
}

func newTestApp(runner *fakeRunner, tracker *fakeTracker, store *fakeStore) *App {
	if runner == nil {
		runner = &fakeRunner{}
	}
	if tracker == nil {
		tracker = &fakeTracker{}
	}
	if store == nil {
		store = &fakeStore{}
	}
	return NewApp(zerolog.Nop(), runner, tracker, store, []string{"proxyapi", "openrouter"})
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		body         string
		wantCode     int
		wantCalls    int
		wantPrompt   string
		wantStyle    string
		wantProvider string
	}{
		{
			name:         "full request",
			body:         `{"prompt":"a red fox","style":"anime","provider":"openrouter"}`,
			wantCode:     http.StatusAccepted,
			wantCalls:    1,
			wantPrompt:   "a red fox",
			wantStyle:    "anime",
			wantProvider: "openrouter",
		},
		{
			name:         "defaults applied",
			body:         `{"prompt":"a red fox"}`,
			wantCode:     http.StatusAccepted,
			wantCalls:    1,
			wantPrompt:   "a red fox",
			wantStyle:    "none",
			wantProvider: "proxyapi",
		},
		{
			name:         "prompt is trimmed",
			body:         `{"prompt":"  spaced out  "}`,
			wantCode:     http.StatusAccepted,
			wantCalls:    1,
			wantPrompt:   "spaced out",
			wantStyle:    "none",
			wantProvider: "proxyapi",
		},
		{
			name:      "empty prompt rejected",
			body:      `{"prompt":"   "}`,
			wantCode:  http.StatusBadRequest,
			wantCalls: 0,
		},
		{
			name:      "malformed body rejected",
			body:      `{"prompt":`,
			wantCode:  http.StatusBadRequest,
			wantCalls: 0,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runner := &fakeRunner{}
			app := newTestApp(runner, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			app.Generate(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			runner.mu.Lock()
			defer runner.mu.Unlock()
			if runner.calls != tc.wantCalls {
				t.Fatalf("runner calls = %d, want %d", runner.calls, tc.wantCalls)
			}
			if tc.wantCalls == 0 {
				return
			}
			if runner.prompt != tc.wantPrompt {
				t.Fatalf("prompt = %q, want %q", runner.prompt, tc.wantPrompt)
			}
			if runner.style != tc.wantStyle {
				t.Fatalf("style = %q, want %q", runner.style, tc.wantStyle)
			}
			if runner.provider != tc.wantProvider {
				t.Fatalf("provider = %q, want %q", runner.provider, tc.wantProvider)
			}
		})
	}
}

func TestGenerateResponseBody(t *testing.T) {
	t.Parallel()
	app := newTestApp(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"a cat"}`))
	rec := httptest.NewRecorder()
	app.Generate(rec, req)

	var got generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Success {
		t.Fatal("Success = false, want true")
	}
	if got.Message != "generation started" {
		t.Fatalf("Message = %q, want %q", got.Message, "generation started")
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	t.Parallel()
	tracker := &fakeTracker{status: domain.GenerationStatus{
		Status:         domain.StateGenerating,
		Progress:       60,
		Message:        "generating image via PROXYAPI",
		OriginalPrompt: "a cat",
		EnhancedPrompt: "a cat, detailed",
	}}
	app := newTestApp(nil, tracker, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	app.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got domain.GenerationStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != tracker.status {
		t.Fatalf("payload = %+v, want %+v", got, tracker.status)
	}
}

func TestStatusFieldNames(t *testing.T) {
	t.Parallel()
	app := newTestApp(nil, &fakeTracker{status: domain.GenerationStatus{Status: domain.StateIdle}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	app.Status(rec, req)

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"status", "progress", "message", "original_prompt", "enhanced_prompt", "image_path", "error"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("response missing field %q (got %v)", key, raw)
		}
	}
}

func TestGallery(t *testing.T) {
	t.Parallel()
	store := &fakeStore{files: map[string][]storage.ImageFile{
		"proxyapi": {
			{Filename: "20240102_000000_b.png", Provider: "proxyapi", Path: "x/proxyapi/20240102_000000_b.png"},
			{Filename: "20240101_000000_a.png", Provider: "proxyapi", Path: "x/proxyapi/20240101_000000_a.png"},
		},
		"openrouter": {
			{Filename: "20240103_000000_c.png", Provider: "openrouter", Path: "x/openrouter/20240103_000000_c.png"},
		},
	}}
	app := newTestApp(nil, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	app.Gallery(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// The listing is a bare JSON array, not an envelope.
	var got []galleryImage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(images) = %d, want 3", len(got))
	}
	first := got[0]
	if first.URL != "/images/proxyapi/20240102_000000_b.png" {
		t.Fatalf("URL = %q, want serving path under /images", first.URL)
	}
	if first.Path != "x/proxyapi/20240102_000000_b.png" {
		t.Fatalf("Path = %q, want the stored file path", first.Path)
	}
	if first.Filename != "20240102_000000_b.png" || first.Provider != "proxyapi" {
		t.Fatalf("entry = %+v, want filename and provider fields", first)
	}
}

func TestGalleryShapeIsArray(t *testing.T) {
	t.Parallel()
	store := &fakeStore{files: map[string][]storage.ImageFile{
		"proxyapi": {{Filename: "20240101_000000_a.png", Provider: "proxyapi", Path: "x/proxyapi/20240101_000000_a.png"}},
	}}
	app := newTestApp(nil, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	app.Gallery(rec, req)

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("gallery body is not a JSON array: %v (body: %s)", err, rec.Body.String())
	}
	for _, key := range []string{"path", "filename", "provider"} {
		if _, ok := got[0][key]; !ok {
			t.Fatalf("entry missing field %q (got %v)", key, got[0])
		}
	}
}

func TestGalleryEmpty(t *testing.T) {
	t.Parallel()
	app := newTestApp(nil, nil, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	rec := httptest.NewRecorder()
	app.Gallery(rec, req)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want an empty array", body)
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()
	app := newTestApp(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/styles", nil)
	rec := httptest.NewRecorder()
	app.Styles(rec, req)

	var got struct {
		Styles []domain.Style `json:"styles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Styles) != 7 {
		t.Fatalf("len(Styles) = %d, want 7", len(got.Styles))
	}
	if got.Styles[0].Key != "none" {
		t.Fatalf("Styles[0].Key = %q, want %q", got.Styles[0].Key, "none")
	}
	for _, s := range got.Styles {
		if s.Name == "" {
			t.Fatalf("style %q has no display name", s.Key)
		}
	}
}

func TestImage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "20240101_000000_a.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store := &fakeStore{paths: map[string]string{"proxyapi/20240101_000000_a.png": path}}
	app := newTestApp(nil, nil, store)

	router := chi.NewRouter()
	router.Get("/images/{provider}/{filename}", app.Image)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/images/proxyapi/20240101_000000_a.png")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = http.Get(srv.URL + "/images/proxyapi/missing.png")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d for a missing file", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	app := newTestApp(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
}
