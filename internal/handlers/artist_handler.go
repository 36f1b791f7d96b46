package handlers

import (
	"net/http"
	"time"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
)

type ArtistHandler struct {
	Service   *services.ArtistService
	Validator *validation.Validator
	Logger    logger.Logger
}

type publicTrack struct {
	ID         string  `json:"id"`
	Title      *string `json:"title"`
	SourceType string  `json:"sourceType"`
	URL        string  `json:"url"`
}

type publicPhoto struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsMain    bool   `json:"isMain"`
	SortOrder int    `json:"sortOrder"`
}

// publicArtist is an artist as shown to visitors: enum values replaced by
// their Korean labels and file keys stripped.
type publicArtist struct {
	ID                  string        `json:"id"`
	Slug                string        `json:"slug"`
	StageName           string        `json:"stageName"`
	ShortIntro          *string       `json:"shortIntro"`
	Roles               []string      `json:"roles"`
	Genres              []string      `json:"genres"`
	MainGenre           *string       `json:"mainGenre"`
	OnlineAvailable     bool          `json:"onlineAvailable"`
	OfflineAvailable    bool          `json:"offlineAvailable"`
	OfflineRegions      []string      `json:"offlineRegions"`
	AverageWorkDuration *string       `json:"averageWorkDuration"`
	PortfolioText       *string       `json:"portfolioText"`
	PortfolioLinks      []string      `json:"portfolioLinks"`
	AvatarURL           *string       `json:"avatarUrl"`
	Tracks              []publicTrack `json:"tracks"`
	Photos              []publicPhoto `json:"photos"`
	CreatedAt           time.Time     `json:"createdAt"`
}

type artistDetailPayload struct {
	publicArtist
	Videos     []models.ArtistVideo     `json:"videos"`
	Equipment  []models.ArtistEquipment `json:"equipment"`
	Rates      []models.ArtistRate      `json:"rates"`
	Stats      models.ResponseMetrics   `json:"stats"`
	Reviews    []models.ArtistReview    `json:"reviews"`
	SavedCount int                      `json:"savedCount"`
	IsSaved    bool                     `json:"isSaved"`
}

func labels(values []string, table map[string]string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if l, ok := table[v]; ok {
			out = append(out, l)
			continue
		}
		out = append(out, v)
	}
	return out
}

func toPublicArtist(a models.ArtistProfile) publicArtist {
	p := publicArtist{
		ID:                  a.ID,
		Slug:                a.Slug,
		StageName:           a.StageName,
		ShortIntro:          a.ShortIntro,
		Roles:               labels(a.Roles, models.RoleLabels),
		Genres:              labels(a.Genres, models.GenreLabels),
		OnlineAvailable:     a.OnlineAvailable,
		OfflineAvailable:    a.OfflineAvailable,
		OfflineRegions:      nonNil(a.OfflineRegions),
		AverageWorkDuration: a.AverageWorkDuration,
		PortfolioText:       a.PortfolioText,
		PortfolioLinks:      nonNil(a.PortfolioLinks),
		AvatarURL:           a.DisplayAvatar(),
		Tracks:              make([]publicTrack, 0, len(a.Tracks)),
		Photos:              make([]publicPhoto, 0, len(a.Photos)),
		CreatedAt:           a.CreatedAt,
	}
	if a.MainGenre != nil {
		label := labels([]string{*a.MainGenre}, models.GenreLabels)[0]
		p.MainGenre = &label
	}
	for _, t := range a.Tracks {
		p.Tracks = append(p.Tracks, publicTrack{ID: t.ID, Title: t.Title, SourceType: t.SourceType, URL: t.URL})
	}
	for _, ph := range a.Photos {
		p.Photos = append(p.Photos, publicPhoto{ID: ph.ID, URL: ph.URL, IsMain: ph.IsMain, SortOrder: ph.SortOrder})
	}
	return p
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *ArtistHandler) ListArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ArtistFilter{
		Genre:   q.Get("genre"),
		Role:    q.Get("role"),
		Online:  q.Get("online") == "true",
		Offline: q.Get("offline") == "true",
		Region:  q.Get("region"),
		Query:   q.Get("q"),
	}

	artists, err := h.Service.ListArtists(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	out := make([]publicArtist, 0, len(artists))
	for _, a := range artists {
		out = append(out, toPublicArtist(a))
	}
	writeJSON(w, http.StatusOK, envelope{"artists": out})
}

func (h *ArtistHandler) CreateArtist(w http.ResponseWriter, r *http.Request) {
	var in models.ArtistInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	artist, err := h.Service.CreateArtist(r.Context(), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"artist": toPublicArtist(artist)})
}

func (h *ArtistHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetArtistDetail(r.Context(), getParam(r, "slug"), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"artist": artistDetailPayload{
		publicArtist: toPublicArtist(detail.Artist),
		Videos:       nonNil(detail.Artist.Videos),
		Equipment:    nonNil(detail.Artist.Equipment),
		Rates:        nonNil(detail.Artist.Rates),
		Stats:        detail.Stats,
		Reviews:      nonNil(detail.Reviews),
		SavedCount:   detail.SavedCount,
		IsSaved:      detail.IsSaved,
	}})
}

func (h *ArtistHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	saved, count, err := h.Service.ToggleSave(r.Context(), getParam(r, "slug"), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"isSaved": saved, "savedCount": count})
}

func (h *ArtistHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var in models.ReviewInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	review, err := h.Service.AddReview(r.Context(), getParam(r, "slug"), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"review": review})
}

// GetMyArtist returns the caller's own profile with raw enum values, or null.
func (h *ArtistHandler) GetMyArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := h.Service.GetMyArtist(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"artist": artist})
}

func (h *ArtistHandler) ReplaceMyArtist(w http.ResponseWriter, r *http.Request) {
	var in models.ArtistInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	artist, err := h.Service.ReplaceMyArtist(r.Context(), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"artist": envelope{"slug": artist.Slug}})
}

func (h *ArtistHandler) DeleteMyArtist(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteMyArtist(r.Context(), UserID(r)); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, nil)
}

func (h *ArtistHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"views": d.Views, "saves": d.Saves, "metrics": d.Metrics})
}

func (h *ArtistHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	artists, err := h.Service.ListSaved(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	out := make([]publicArtist, 0, len(artists))
	for _, a := range artists {
		out = append(out, toPublicArtist(a))
	}
	writeOK(w, envelope{"artists": out})
}
