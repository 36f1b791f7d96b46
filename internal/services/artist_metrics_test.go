package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundcrew/internal/models"
)

func TestComputeResponseMetrics(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	thread := func(id string) *string { return &id }

	cases := []struct {
		name     string
		requests []models.RequestTiming
		firsts   map[string]time.Time
		rate     *int
		minutes  *int
		done     int
	}{
		{
			name: "no requests",
		},
		{
			name:     "single reply after 45 minutes",
			requests: []models.RequestTiming{{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0}},
			firsts:   map[string]time.Time{"t1": t0.Add(45 * time.Minute)},
			rate:     ptr(100),
			minutes:  ptr(45),
		},
		{
			name: "requests without thread or reply lower the rate",
			requests: []models.RequestTiming{
				{Status: models.RequestCompleted, ThreadID: thread("t1"), CreatedAt: t0},
				{Status: models.RequestPending, ThreadID: thread("t2"), CreatedAt: t0},
				{Status: models.RequestPending, CreatedAt: t0},
			},
			firsts:  map[string]time.Time{"t1": t0.Add(10 * time.Minute)},
			rate:    ptr(33),
			minutes: ptr(10),
			done:    1,
		},
		{
			name:     "no reply at all",
			requests: []models.RequestTiming{{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0}},
		},
		{
			name: "reply before a later request on the same thread clamps to zero",
			requests: []models.RequestTiming{
				{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0},
				{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0.Add(2 * time.Hour)},
			},
			firsts:  map[string]time.Time{"t1": t0.Add(30 * time.Minute)},
			rate:    ptr(100),
			minutes: ptr(15),
		},
		{
			name:     "half a minute rounds up",
			requests: []models.RequestTiming{{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0}},
			firsts:   map[string]time.Time{"t1": t0.Add(90 * time.Second)},
			rate:     ptr(100),
			minutes:  ptr(2),
		},
		{
			name: "two thirds rounds to 67",
			requests: []models.RequestTiming{
				{Status: models.RequestPending, ThreadID: thread("t1"), CreatedAt: t0},
				{Status: models.RequestPending, ThreadID: thread("t2"), CreatedAt: t0},
				{Status: models.RequestPending, ThreadID: thread("t3"), CreatedAt: t0},
			},
			firsts: map[string]time.Time{
				"t1": t0.Add(5 * time.Minute),
				"t2": t0.Add(6 * time.Minute),
			},
			rate:    ptr(67),
			minutes: ptr(6),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ComputeResponseMetrics(tc.requests, tc.firsts)
			assert.Equal(t, len(tc.requests), m.TotalRequests)
			assert.Equal(t, tc.done, m.CompletedCount)
			assert.Equal(t, tc.rate, m.ResponseRate)
			assert.Equal(t, tc.minutes, m.ResponseTimeMinutes)
		})
	}
}

func TestMetricsServiceCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.newUser(t, "owner")
	client := f.newUser(t, "client")
	artist := f.newArtist(t, owner)

	req, err := f.requests.CreateRequest(ctx, client.ID, models.ArtistRequestInput{
		ArtistID: artist.ID, ShortHelp: "보컬 녹음", Description: "데모 곡 보컬",
	})
	require.NoError(t, err)
	require.NotNil(t, req.ThreadID)

	m, err := f.metrics.ForArtist(ctx, artist)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalRequests)
	assert.Nil(t, m.ResponseRate)
	_, err = f.cache.Get(ctx, metricsKey(owner.ID))
	require.NoError(t, err)

	f.clock.Advance(45 * time.Minute)
	_, err = f.messages.SendInThread(ctx, *req.ThreadID, owner.ID, models.MessageInput{Body: "좋아요"})
	require.NoError(t, err)

	m, err = f.metrics.ForArtist(ctx, artist)
	require.NoError(t, err)
	require.NotNil(t, m.ResponseRate)
	assert.Equal(t, 100, *m.ResponseRate)
	assert.Equal(t, 45, *m.ResponseTimeMinutes)
}

func TestMetricsForArtistWithoutUser(t *testing.T) {
	f := newFixture(t)
	m, err := f.metrics.ForArtist(context.Background(), models.ArtistProfile{ID: "orphan"})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseMetrics{}, m)
}

func TestMetricsInvalidateNil(t *testing.T) {
	var s *MetricsService
	assert.NotPanics(t, func() { s.Invalidate(context.Background(), "u") })
}
