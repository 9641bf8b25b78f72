package domain

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultStyleKey is the no-op style applied when a request names none.
const DefaultStyleKey = "none"

// Style maps a catalog key to a display name and the suffix appended
// verbatim to enhanced prompts. The catalog is fixed at compile time.
type Style struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Suffix string `json:"suffix"`
}

var styleOrder = []string{"none", "photorealistic", "anime", "watercolor", "cyberpunk", "pixel", "oil"}

var styleCatalog = map[string]Style{
	"none":           {Key: "none", Name: "No style"},
	"photorealistic": {Key: "photorealistic", Name: "Photorealism", Suffix: "photorealistic, high detail, professional photography, studio lighting"},
	"anime":          {Key: "anime", Suffix: "anime style, detailed anime art, vibrant colors, manga illustration"},
	"watercolor":     {Key: "watercolor", Suffix: "watercolor painting, soft colors, artistic, traditional art"},
	"cyberpunk":      {Key: "cyberpunk", Suffix: "cyberpunk style, neon lights, futuristic, dark atmosphere"},
	"pixel":          {Key: "pixel", Name: "Pixel art", Suffix: "pixel art, 8-bit style, retro gaming aesthetic"},
	"oil":            {Key: "oil", Name: "Oil painting", Suffix: "oil painting, classic art style, textured brushstrokes"},
}

var styleTitle = cases.Title(language.English)

// StyleFor resolves a catalog key, falling back to the no-op style for keys
// outside the catalog. Entries without an explicit display name get one
// derived from the key.
func StyleFor(key string) Style {
	s, ok := styleCatalog[key]
	if !ok {
		s = styleCatalog[DefaultStyleKey]
	}
	if s.Name == "" {
		s.Name = styleTitle.String(s.Key)
	}
	return s
}

// Styles lists the catalog in its presentation order.
func Styles() []Style {
	out := make([]Style, 0, len(styleOrder))
	for _, key := range styleOrder {
		out = append(out, StyleFor(key))
	}
	return out
}
