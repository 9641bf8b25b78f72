package handlers

import "net/http"

// galleryLimit caps how many images each provider contributes to the
// gallery listing.
const galleryLimit = 10

type galleryImage struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

// Gallery lists recently generated images across all configured providers,
// newest first within each provider, as a bare JSON array. A provider whose
// directory cannot be read is skipped rather than failing the whole listing.
func (a *App) Gallery(w http.ResponseWriter, r *http.Request) {
	images := make([]galleryImage, 0, galleryLimit*len(a.Providers))
	for _, provider := range a.Providers {
		files, err := a.Store.ListRecent(provider, galleryLimit)
		if err != nil {
			a.Logger.Warn().Err(err).Str("provider", provider).Msg("gallery listing failed")
			continue
		}
		for _, f := range files {
			images = append(images, galleryImage{
				Path:     f.Path,
				Filename: f.Filename,
				Provider: f.Provider,
				URL:      "/images/" + f.Provider + "/" + f.Filename,
			})
		}
	}
	a.json(w, http.StatusOK, images)
}
