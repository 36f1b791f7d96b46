package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"soundcrew/internal/cache"
	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
)

// ComputeResponseMetrics derives the response stats of an artist from their
// requests and the earliest artist reply per thread. A request counts as
// responded only when its thread has such a reply.
func ComputeResponseMetrics(requests []models.RequestTiming, firstResponses map[string]time.Time) models.ResponseMetrics {
	m := models.ResponseMetrics{TotalRequests: len(requests)}
	if len(requests) == 0 {
		return m
	}

	responded, totalMinutes := 0, 0
	for _, r := range requests {
		if r.Status == models.RequestCompleted {
			m.CompletedCount++
		}
		if r.ThreadID == nil {
			continue
		}
		first, ok := firstResponses[*r.ThreadID]
		if !ok {
			continue
		}
		responded++
		minutes := jsRound(float64(first.Sub(r.CreatedAt).Milliseconds()) / 60000)
		if minutes < 0 {
			minutes = 0
		}
		totalMinutes += minutes
	}

	if responded > 0 {
		rate := jsRound(float64(responded) / float64(len(requests)) * 100)
		avg := jsRound(float64(totalMinutes) / float64(responded))
		m.ResponseRate = &rate
		m.ResponseTimeMinutes = &avg
	}
	return m
}

// jsRound rounds half up, including for negative values.
func jsRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

type MetricsService struct {
	RequestRepo *repositories.ArtistRequestRepository
	MessageRepo *repositories.MessageRepository
	Cache       cache.Cache
	TTL         time.Duration
	Logger      logger.Logger
}

func metricsKey(artistUserID string) string {
	return "metrics:user:" + artistUserID
}

// ForArtist returns the response metrics of the artist, served from cache when possible.
func (s *MetricsService) ForArtist(ctx context.Context, artist models.ArtistProfile) (models.ResponseMetrics, error) {
	if artist.UserID == nil {
		return models.ResponseMetrics{}, nil
	}
	key := metricsKey(*artist.UserID)

	if raw, err := s.Cache.Get(ctx, key); err == nil {
		var m models.ResponseMetrics
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		s.Logger.Errorf("metrics cache get %s: %v", key, err)
	}

	timings, err := s.RequestRepo.GetRequestTimings(ctx, artist.ID)
	if err != nil {
		return models.ResponseMetrics{}, err
	}
	if len(timings) == 0 {
		return models.ResponseMetrics{}, nil
	}

	seen := make(map[string]struct{}, len(timings))
	threadIDs := make([]string, 0, len(timings))
	for _, t := range timings {
		if t.ThreadID == nil {
			continue
		}
		if _, ok := seen[*t.ThreadID]; ok {
			continue
		}
		seen[*t.ThreadID] = struct{}{}
		threadIDs = append(threadIDs, *t.ThreadID)
	}

	firsts, err := s.MessageRepo.GetFirstResponses(ctx, threadIDs, *artist.UserID)
	if err != nil {
		return models.ResponseMetrics{}, err
	}
	m := ComputeResponseMetrics(timings, firsts)

	if raw, err := json.Marshal(m); err == nil {
		if err := s.Cache.Set(ctx, key, string(raw), s.TTL); err != nil {
			s.Logger.Errorf("metrics cache set %s: %v", key, err)
		}
	}
	return m, nil
}

// Invalidate drops the cached metrics of the artist owned by artistUserID.
func (s *MetricsService) Invalidate(ctx context.Context, artistUserID string) {
	if s == nil {
		return
	}
	if err := s.Cache.Del(ctx, metricsKey(artistUserID)); err != nil {
		s.Logger.Errorf("metrics cache del: %v", err)
	}
}
