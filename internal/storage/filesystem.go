package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// slugMaxChars is how much of the prompt feeds the filename before
// sanitization.
const slugMaxChars = 30

// ImageFile describes one persisted artifact for gallery listings.
type ImageFile struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Provider string `json:"provider"`
}

// FileStore persists generated images onto the local filesystem, one flat
// directory per provider key. Files are written once and never mutated;
// cleanup is left to the operator.
type FileStore struct {
	basePath string
	now      func() time.Time
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, now: time.Now}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveImage writes decoded image bytes under the provider's directory. The
// filename is a second-precision timestamp plus a sanitized prompt fragment,
// so collisions are possible only for identical prompts within the same
// second. Returns the path of the written file.
func (s *FileStore) SaveImage(provider, prompt string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("storage: provider is required")
	}
	dir := filepath.Join(s.basePath, provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure provider directory: %w", err)
	}
	filename := fmt.Sprintf("%s_%s.png", s.now().Format("20060102_150405"), Slug(prompt))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write image: %w", err)
	}
	return path, nil
}

// ListRecent returns up to limit image files for the provider, newest first
// by modification time. A provider directory that does not exist yet is an
// empty listing, not an error.
func (s *FileStore) ListRecent(provider string, limit int) ([]ImageFile, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	dir := filepath.Join(s.basePath, provider)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read provider directory: %w", err)
	}
	type stamped struct {
		file ImageFile
		mod  time.Time
	}
	files := make([]stamped, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{
			file: ImageFile{
				Path:     filepath.Join(dir, entry.Name()),
				Filename: entry.Name(),
				Provider: provider,
			},
			mod: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	out := make([]ImageFile, len(files))
	for i, f := range files {
		out[i] = f.file
	}
	return out, nil
}

// Open resolves the named file inside the provider's directory. Both path
// segments are validated so a crafted request cannot escape the storage
// root.
func (s *FileStore) Open(provider, filename string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := validateSegment(provider); err != nil {
		return "", err
	}
	if err := validateSegment(filename); err != nil {
		return "", err
	}
	path := filepath.Join(s.basePath, provider, filename)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("storage: stat image: %w", err)
	}
	if info.IsDir() {
		return "", errors.New("storage: not a file")
	}
	return path, nil
}

func validateSegment(segment string) error {
	if segment == "" || segment == "." || segment == ".." {
		return errors.New("storage: invalid path segment")
	}
	if strings.ContainsAny(segment, `/\`) {
		return errors.New("storage: invalid path segment")
	}
	return nil
}

// Slug derives a filename-safe fragment from the first 30 characters of the
// prompt. Letters, digits, spaces, hyphens and underscores survive,
// surrounding whitespace is trimmed and remaining spaces become underscores.
func Slug(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > slugMaxChars {
		runes = runes[:slugMaxChars]
	}
	var b strings.Builder
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}
