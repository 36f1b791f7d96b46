package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"soundcrew/internal/cache"
	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
)

const viewDedupeTTL = 24 * time.Hour

type ArtistService struct {
	DB          *repositories.DB
	ArtistRepo  *repositories.ArtistRepository
	SaveRepo    *repositories.ArtistSaveRepository
	ViewRepo    *repositories.ArtistViewRepository
	ReviewRepo  *repositories.ArtistReviewRepository
	RequestRepo *repositories.ArtistRequestRepository
	Metrics     *MetricsService
	Cache       cache.Cache
	Logger      logger.Logger

	now func() time.Time
}

func (s *ArtistService) clock() time.Time { return timestamp(s.now) }

// ListArtists applies the directory filters. A genre or role outside the
// known sets matches nothing.
func (s *ArtistService) ListArtists(ctx context.Context, f models.ArtistFilter) ([]models.ArtistProfile, error) {
	if f.Genre != "" && !slices.Contains(models.Genres, f.Genre) ||
		f.Role != "" && !slices.Contains(models.Roles, f.Role) {
		return []models.ArtistProfile{}, nil
	}
	return s.ArtistRepo.ListArtists(ctx, f)
}

func checkMainGenre(in models.ArtistInput) error {
	if in.MainGenre == "" {
		return models.ErrMainGenreRequired
	}
	for _, g := range in.Genres {
		if g == in.MainGenre {
			return nil
		}
	}
	return models.ErrMainGenreInvalid
}

// CreateArtist creates the caller's profile. The slug is derived from the
// profile count inside the same transaction.
func (s *ArtistService) CreateArtist(ctx context.Context, userID string, in models.ArtistInput) (models.ArtistProfile, error) {
	if err := checkMainGenre(in); err != nil {
		return models.ArtistProfile{}, err
	}

	now := s.clock()
	artist := buildArtist(uuid.NewString(), in)
	artist.UserID = &userID
	artist.CreatedAt, artist.UpdatedAt = now, now

	err := s.DB.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ArtistRepo.GetArtistIDByUserID(ctx, userID); err == nil {
			return models.ErrArtistExists
		} else if !errors.Is(err, models.ErrNoRecord) {
			return err
		}

		count, err := s.ArtistRepo.CountArtists(ctx)
		if err != nil {
			return err
		}
		artist.Slug = fmt.Sprintf("artist%d", count+1)

		if err := s.ArtistRepo.CreateArtist(ctx, artist); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return models.ErrSlugTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.ArtistProfile{}, err
	}
	return artist, nil
}

// buildArtist maps the input onto a profile with fresh child ids. The avatar
// falls back to the main photo, which is the first photo flagged isMain or
// else the first photo.
func buildArtist(id string, in models.ArtistInput) models.ArtistProfile {
	a := models.ArtistProfile{
		ID:                  id,
		StageName:           in.StageName,
		ShortIntro:          in.ShortIntro,
		Roles:               in.Roles,
		Genres:              in.Genres,
		OfflineRegions:      nonNil(in.OfflineRegions),
		AverageWorkDuration: in.AverageWorkDuration,
		PortfolioText:       in.PortfolioText,
		PortfolioLinks:      nonNil(in.PortfolioLinks),
		AvatarURL:           in.AvatarURL,
		AvatarKey:           in.AvatarKey,
		Tracks:              []models.ArtistTrack{},
		Photos:              []models.ArtistPhoto{},
		Videos:              []models.ArtistVideo{},
		Equipment:           []models.ArtistEquipment{},
		Rates:               []models.ArtistRate{},
	}
	mainGenre := in.MainGenre
	a.MainGenre = &mainGenre
	if in.OnlineAvailable != nil {
		a.OnlineAvailable = *in.OnlineAvailable
	}
	if in.OfflineAvailable != nil {
		a.OfflineAvailable = *in.OfflineAvailable
	}

	for i, t := range in.Tracks {
		a.Tracks = append(a.Tracks, models.ArtistTrack{
			ID: uuid.NewString(), ArtistID: id, Title: t.Title, SourceType: t.SourceType, URL: t.URL,
			FileKey: t.FileKey, SortOrder: i,
		})
	}

	var main *models.PhotoInput
	for i, p := range in.Photos {
		if main == nil && p.IsMain != nil && *p.IsMain {
			main = &in.Photos[i]
		}
		photo := models.ArtistPhoto{
			ID: uuid.NewString(), ArtistID: id, URL: p.URL, FileKey: p.FileKey, IsMain: i == 0, SortOrder: i,
		}
		if p.IsMain != nil {
			photo.IsMain = *p.IsMain
		}
		if p.SortOrder != nil {
			photo.SortOrder = *p.SortOrder
		}
		a.Photos = append(a.Photos, photo)
	}
	if main == nil && len(in.Photos) > 0 {
		main = &in.Photos[0]
	}
	if main != nil {
		if a.AvatarURL == nil {
			url := main.URL
			a.AvatarURL = &url
		}
		if a.AvatarKey == nil {
			a.AvatarKey = main.FileKey
		}
	}

	for i, v := range in.Videos {
		a.Videos = append(a.Videos, models.ArtistVideo{
			ID: uuid.NewString(), ArtistID: id, Title: v.Title, URL: v.URL, SortOrder: i,
		})
	}
	for i, e := range in.Equipment {
		a.Equipment = append(a.Equipment, models.ArtistEquipment{
			ID: uuid.NewString(), ArtistID: id, Category: e.Category, Name: e.Name, SortOrder: orDefault(e.SortOrder, i),
		})
	}
	for i, r := range in.Rates {
		a.Rates = append(a.Rates, models.ArtistRate{
			ID: uuid.NewString(), ArtistID: id, Title: r.Title, Amount: r.Amount, SortOrder: orDefault(r.SortOrder, i),
		})
	}
	return a
}

func orDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GetArtistDetail loads the public profile page and records a view.
// viewerID is empty for anonymous visitors.
func (s *ArtistService) GetArtistDetail(ctx context.Context, slug, viewerID string) (models.ArtistDetail, error) {
	artist, err := s.ArtistRepo.GetArtistBySlug(ctx, slug)
	if err != nil {
		return models.ArtistDetail{}, err
	}
	detail := models.ArtistDetail{Artist: artist}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.Metrics.ForArtist(gctx, artist)
		detail.Stats = m
		return err
	})
	g.Go(func() error {
		reviews, err := s.ReviewRepo.GetReviewsByArtist(gctx, artist.ID)
		detail.Reviews = reviews
		return err
	})
	g.Go(func() error {
		n, err := s.SaveRepo.CountSaves(gctx, artist.ID)
		detail.SavedCount = n
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			_, err := s.SaveRepo.FindSave(gctx, artist.ID, viewerID)
			switch {
			case err == nil:
				detail.IsSaved = true
			case errors.Is(err, models.ErrNoRecord):
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ArtistDetail{}, err
	}

	s.recordView(ctx, artist, viewerID)
	return detail, nil
}

// recordView stores one view per signed-in viewer per day. Owners viewing
// their own page are not counted. Failures are only logged.
func (s *ArtistService) recordView(ctx context.Context, artist models.ArtistProfile, viewerID string) {
	now := s.clock()
	var viewer *string
	if viewerID != "" {
		if artist.UserID != nil && *artist.UserID == viewerID {
			return
		}
		key := fmt.Sprintf("view:%s:%s:%s", artist.ID, viewerID, now.Format("20060102"))
		fresh, err := s.Cache.SetNX(ctx, key, "1", viewDedupeTTL)
		if err != nil {
			s.Logger.Errorf("view dedupe %s: %v", key, err)
		} else if !fresh {
			return
		}
		viewer = &viewerID
	}

	err := s.ViewRepo.CreateView(ctx, models.ArtistView{
		ID: uuid.NewString(), ArtistID: artist.ID, ViewerID: viewer, CreatedAt: now,
	})
	if err != nil {
		s.Logger.Errorf("record view for %s: %v", artist.ID, err)
	}
}

// ToggleSave flips the saved state of the artist for the user.
func (s *ArtistService) ToggleSave(ctx context.Context, slug, userID string) (bool, int, error) {
	artist, err := s.ArtistRepo.GetArtistBySlug(ctx, slug)
	if err != nil {
		return false, 0, err
	}

	existing, err := s.SaveRepo.FindSave(ctx, artist.ID, userID)
	switch {
	case err == nil:
		err = s.SaveRepo.DeleteSave(ctx, existing.ID)
	case errors.Is(err, models.ErrNoRecord):
		err = s.SaveRepo.CreateSave(ctx, models.ArtistSave{
			ID: uuid.NewString(), ArtistID: artist.ID, UserID: userID, CreatedAt: s.clock(),
		})
		if errors.Is(err, models.ErrDuplicate) {
			err = nil
		}
	}
	if err != nil {
		return false, 0, err
	}

	count, err := s.SaveRepo.CountSaves(ctx, artist.ID)
	if err != nil {
		return false, 0, err
	}
	return existing.ID == "", count, nil
}

// GetMyArtist returns the caller's profile or nil when they have none.
func (s *ArtistService) GetMyArtist(ctx context.Context, userID string) (*models.ArtistProfile, error) {
	artist, err := s.ArtistRepo.GetArtistByUserID(ctx, userID)
	if errors.Is(err, models.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// ReplaceMyArtist overwrites the caller's profile and all of its children.
func (s *ArtistService) ReplaceMyArtist(ctx context.Context, userID string, in models.ArtistInput) (models.ArtistProfile, error) {
	if err := checkMainGenre(in); err != nil {
		return models.ArtistProfile{}, err
	}

	var artist models.ArtistProfile
	err := s.DB.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.ArtistRepo.GetArtistByUserID(ctx, userID)
		if err != nil {
			return err
		}
		artist = buildArtist(existing.ID, in)
		artist.Slug = existing.Slug
		artist.UserID = existing.UserID
		artist.CreatedAt = existing.CreatedAt
		artist.UpdatedAt = s.clock()
		return s.ArtistRepo.ReplaceArtist(ctx, artist)
	})
	if err != nil {
		return models.ArtistProfile{}, err
	}
	return artist, nil
}

func (s *ArtistService) DeleteMyArtist(ctx context.Context, userID string) error {
	return s.DB.InTx(ctx, func(ctx context.Context) error {
		id, err := s.ArtistRepo.GetArtistIDByUserID(ctx, userID)
		if err != nil {
			return err
		}
		return s.ArtistRepo.DeleteArtist(ctx, id)
	})
}

// Dashboard returns the owner's counters; all zero when they have no profile.
func (s *ArtistService) Dashboard(ctx context.Context, userID string) (models.ArtistDashboard, error) {
	var d models.ArtistDashboard
	artist, err := s.ArtistRepo.GetArtistByUserID(ctx, userID)
	if errors.Is(err, models.ErrNoRecord) {
		return d, nil
	}
	if err != nil {
		return d, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.ViewRepo.CountViews(gctx, artist.ID)
		d.Views = n
		return err
	})
	g.Go(func() error {
		n, err := s.SaveRepo.CountSaves(gctx, artist.ID)
		d.Saves = n
		return err
	})
	g.Go(func() error {
		m, err := s.Metrics.ForArtist(gctx, artist)
		d.Metrics = m
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ArtistDashboard{}, err
	}
	return d, nil
}

func (s *ArtistService) ListSaved(ctx context.Context, userID string) ([]models.ArtistProfile, error) {
	return s.ArtistRepo.ListSavedArtists(ctx, userID)
}

// AddReview lets a requester review the artist once per completed request.
func (s *ArtistService) AddReview(ctx context.Context, slug, reviewerID string, in models.ReviewInput) (models.ArtistReview, error) {
	artist, err := s.ArtistRepo.GetArtistBySlug(ctx, slug)
	if err != nil {
		return models.ArtistReview{}, err
	}

	req, err := s.RequestRepo.FindReviewableRequest(ctx, artist.ID, reviewerID)
	if errors.Is(err, models.ErrNoRecord) {
		return models.ArtistReview{}, models.ErrReviewNotAllowed
	}
	if err != nil {
		return models.ArtistReview{}, err
	}

	review := models.ArtistReview{
		ID:         uuid.NewString(),
		ArtistID:   artist.ID,
		ReviewerID: reviewerID,
		RequestID:  req.ID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  s.clock(),
	}
	if err := s.ReviewRepo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.ArtistReview{}, models.ErrReviewNotAllowed
		}
		return models.ArtistReview{}, err
	}
	return review, nil
}
