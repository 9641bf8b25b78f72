package image

import (
	"encoding/json"
	"strings"

	"server/internal/domain"
)

const dataURIPrefix = "data:image"

const maxDumpBytes = 1024

// chatEnvelope mirrors the slice of a chat-completions payload the
// normalizer cares about. Content stays raw because providers disagree on
// whether it is a string or a list of parts.
type chatEnvelope struct {
	Choices []struct {
		Message struct {
			Images  []json.RawMessage `json:"images"`
			Content json.RawMessage   `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// imageEntry covers the shapes seen inside a message.images element across
// provider and model versions.
type imageEntry struct {
	URL      string `json:"url"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
	ImageURLCamel struct {
		URL string `json:"url"`
	} `json:"imageUrl"`
}

type contentPart struct {
	Type     string `json:"type"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// ExtractImageDataURIs pulls image data URIs out of a chat-completions
// response. Model versions encode image output in several layouts, so each
// known shape is tried in priority order and the first one that yields
// anything wins. When nothing matches, the error carries a truncated dump of
// the payload.
func ExtractImageDataURIs(raw []byte) ([]string, error) {
	var envelope chatEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &domain.NoImageError{Dump: dump(raw)}
	}
	if len(envelope.Choices) == 0 {
		return nil, &domain.NoImageError{Dump: dump(raw)}
	}
	msg := envelope.Choices[0].Message
	if uris := fromImages(msg.Images); len(uris) > 0 {
		return uris, nil
	}
	if uris := fromContentParts(msg.Content); len(uris) > 0 {
		return uris, nil
	}
	if uri, ok := fromContentString(msg.Content); ok {
		return []string{uri}, nil
	}
	return nil, &domain.NoImageError{Dump: dump(raw)}
}

// fromImages handles the structured images field: entries are either a bare
// URL string or an object with a direct url, a nested image_url.url or the
// camel-cased imageUrl.url variant.
func fromImages(entries []json.RawMessage) []string {
	var uris []string
	for _, entry := range entries {
		var direct string
		if err := json.Unmarshal(entry, &direct); err == nil {
			if direct != "" {
				uris = append(uris, direct)
			}
			continue
		}
		var obj imageEntry
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}
		switch {
		case obj.URL != "":
			uris = append(uris, obj.URL)
		case obj.ImageURL.URL != "":
			uris = append(uris, obj.ImageURL.URL)
		case obj.ImageURLCamel.URL != "":
			uris = append(uris, obj.ImageURLCamel.URL)
		}
	}
	return uris
}

// fromContentParts handles content expressed as a list of typed parts.
func fromContentParts(content json.RawMessage) []string {
	var parts []contentPart
	if err := json.Unmarshal(content, &parts); err != nil {
		return nil
	}
	var uris []string
	for _, part := range parts {
		if part.ImageURL.URL != "" {
			uris = append(uris, part.ImageURL.URL)
		}
	}
	return uris
}

// fromContentString accepts a plain string content only when it is already a
// data URI.
func fromContentString(content json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(content, &s); err != nil {
		return "", false
	}
	if !strings.HasPrefix(s, dataURIPrefix) {
		return "", false
	}
	return s, true
}

func dump(raw []byte) string {
	if len(raw) > maxDumpBytes {
		return string(raw[:maxDumpBytes]) + "..."
	}
	return string(raw)
}
