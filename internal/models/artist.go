package models

import "time"

var Genres = []string{
	"POP", "HIPHOP", "RNB", "ELECTRONIC", "ROCK", "ACOUSTIC",
	"JAZZ", "CINEMATIC", "WORLD", "GOSPEL", "INDIE",
}

var Roles = []string{
	"PRODUCER", "SINGER", "MIXING_ENGINEER", "SONGWRITER", "MASTERING_ENGINEER", "SESSION_MUSICIAN",
}

var GenreLabels = map[string]string{
	"POP":        "팝",
	"HIPHOP":     "힙합",
	"RNB":        "알앤비",
	"ELECTRONIC": "일렉트로닉",
	"ROCK":       "락",
	"ACOUSTIC":   "어쿠스틱",
	"JAZZ":       "재즈",
	"CINEMATIC":  "시네마틱",
	"WORLD":      "월드 뮤직",
	"GOSPEL":     "가스펠",
	"INDIE":      "인디",
}

var RoleLabels = map[string]string{
	"PRODUCER":           "프로듀서",
	"SINGER":             "싱어",
	"MIXING_ENGINEER":    "믹싱 엔지니어",
	"SONGWRITER":         "송라이터",
	"MASTERING_ENGINEER": "마스터링 엔지니어",
	"SESSION_MUSICIAN":   "세션 뮤지션",
}

const (
	TrackUpload = "UPLOAD"
	TrackLink   = "LINK"

	EquipmentInstrument = "INSTRUMENT"
	EquipmentGear       = "GEAR"
)

type ArtistProfile struct {
	ID                  string            `json:"id"`
	Slug                string            `json:"slug"`
	UserID              *string           `json:"userId,omitempty"`
	StageName           string            `json:"stageName"`
	ShortIntro          *string           `json:"shortIntro,omitempty"`
	Roles               []string          `json:"roles"`
	Genres              []string          `json:"genres"`
	MainGenre           *string           `json:"mainGenre,omitempty"`
	OnlineAvailable     bool              `json:"onlineAvailable"`
	OfflineAvailable    bool              `json:"offlineAvailable"`
	OfflineRegions      []string          `json:"offlineRegions"`
	AverageWorkDuration *string           `json:"averageWorkDuration,omitempty"`
	PortfolioText       *string           `json:"portfolioText,omitempty"`
	PortfolioLinks      []string          `json:"portfolioLinks"`
	AvatarURL           *string           `json:"avatarUrl,omitempty"`
	AvatarKey           *string           `json:"avatarKey,omitempty"`
	Tracks              []ArtistTrack     `json:"tracks"`
	Photos              []ArtistPhoto     `json:"photos"`
	Videos              []ArtistVideo     `json:"videos"`
	Equipment           []ArtistEquipment `json:"equipment"`
	Rates               []ArtistRate      `json:"rates"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// MainPhoto returns the photo flagged as main, else the first one.
func (a ArtistProfile) MainPhoto() *ArtistPhoto {
	for i := range a.Photos {
		if a.Photos[i].IsMain {
			return &a.Photos[i]
		}
	}
	if len(a.Photos) > 0 {
		return &a.Photos[0]
	}
	return nil
}

// DisplayAvatar resolves avatarUrl ?? main photo ?? first photo.
func (a ArtistProfile) DisplayAvatar() *string {
	if a.AvatarURL != nil {
		return a.AvatarURL
	}
	if p := a.MainPhoto(); p != nil {
		url := p.URL
		return &url
	}
	return nil
}

type ArtistTrack struct {
	ID         string  `json:"id"`
	ArtistID   string  `json:"-"`
	Title      *string `json:"title,omitempty"`
	SourceType string  `json:"sourceType"`
	URL        string  `json:"url"`
	FileKey    *string `json:"fileKey,omitempty"`
	SortOrder  int     `json:"-"`
}

type ArtistPhoto struct {
	ID        string  `json:"id"`
	ArtistID  string  `json:"-"`
	URL       string  `json:"url"`
	FileKey   *string `json:"fileKey,omitempty"`
	IsMain    bool    `json:"isMain"`
	SortOrder int     `json:"sortOrder"`
}

type ArtistVideo struct {
	ID        string  `json:"id"`
	ArtistID  string  `json:"-"`
	Title     *string `json:"title,omitempty"`
	URL       string  `json:"url"`
	SortOrder int     `json:"sortOrder"`
}

type ArtistEquipment struct {
	ID        string `json:"id"`
	ArtistID  string `json:"-"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

type ArtistRate struct {
	ID        string `json:"id"`
	ArtistID  string `json:"-"`
	Title     string `json:"title"`
	Amount    int64  `json:"amount"`
	SortOrder int    `json:"sortOrder"`
}

type ArtistReview struct {
	ID              string    `json:"id"`
	ArtistID        string    `json:"-"`
	ReviewerID      string    `json:"-"`
	RequestID       string    `json:"-"`
	AuthorName      string    `json:"authorName"`
	AuthorAvatarURL *string   `json:"authorAvatarUrl,omitempty"`
	Rating          int       `json:"rating"`
	Comment         string    `json:"comment"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ArtistSave struct {
	ID        string
	ArtistID  string
	UserID    string
	CreatedAt time.Time
}

type ArtistView struct {
	ID        string
	ArtistID  string
	ViewerID  *string
	CreatedAt time.Time
}

// ArtistFilter narrows the public artist listing.
type ArtistFilter struct {
	Genre   string
	Role    string
	Online  bool
	Offline bool
	Region  string
	Query   string
}

// ArtistDetail is the public profile page payload.
type ArtistDetail struct {
	Artist     ArtistProfile
	Stats      ResponseMetrics
	Reviews    []ArtistReview
	SavedCount int
	IsSaved    bool
}

// ArtistDashboard feeds the owner's dashboard counters.
type ArtistDashboard struct {
	Views   int             `json:"views"`
	Saves   int             `json:"saves"`
	Metrics ResponseMetrics `json:"metrics"`
}

type ArtistInput struct {
	StageName           string           `json:"stageName" validate:"required"`
	ShortIntro          *string          `json:"shortIntro" validate:"omitempty,max=50"`
	Roles               []string         `json:"roles" validate:"required,min=1,dive,role"`
	Genres              []string         `json:"genres" validate:"required,min=1,dive,genre"`
	MainGenre           string           `json:"mainGenre" validate:"omitempty,genre"`
	OnlineAvailable     *bool            `json:"onlineAvailable"`
	OfflineAvailable    *bool            `json:"offlineAvailable"`
	OfflineRegions      []string         `json:"offlineRegions"`
	AverageWorkDuration *string          `json:"averageWorkDuration"`
	PortfolioText       *string          `json:"portfolioText"`
	PortfolioLinks      []string         `json:"portfolioLinks" validate:"omitempty,dive,url"`
	AvatarURL           *string          `json:"avatarUrl" validate:"omitempty,url"`
	AvatarKey           *string          `json:"avatarKey"`
	Tracks              []TrackInput     `json:"tracks" validate:"omitempty,max=3,dive"`
	Photos              []PhotoInput     `json:"photos" validate:"omitempty,max=5,dive"`
	Videos              []VideoInput     `json:"videos" validate:"omitempty,max=10,dive"`
	Equipment           []EquipmentInput `json:"equipment" validate:"omitempty,max=50,dive"`
	Rates               []RateInput      `json:"rates" validate:"omitempty,max=20,dive"`
}

type TrackInput struct {
	Title      *string `json:"title"`
	SourceType string  `json:"sourceType" validate:"required,oneof=UPLOAD LINK"`
	URL        string  `json:"url" validate:"required,url"`
	FileKey    *string `json:"fileKey"`
}

type PhotoInput struct {
	URL       string  `json:"url" validate:"required,url"`
	FileKey   *string `json:"fileKey"`
	IsMain    *bool   `json:"isMain"`
	SortOrder *int    `json:"sortOrder"`
}

type VideoInput struct {
	Title *string `json:"title"`
	URL   string  `json:"url" validate:"required,url"`
}

type EquipmentInput struct {
	Category  string `json:"category" validate:"required,oneof=INSTRUMENT GEAR"`
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder *int   `json:"sortOrder"`
}

type RateInput struct {
	Title     string `json:"title" validate:"required,max=100"`
	Amount    int64  `json:"amount" validate:"gte=0"`
	SortOrder *int   `json:"sortOrder"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=1000"`
}
