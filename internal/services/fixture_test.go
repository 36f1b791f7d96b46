package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundcrew/internal/cache"
	"soundcrew/internal/models"
	"soundcrew/internal/realtime"
	"soundcrew/internal/repositories"
	"soundcrew/internal/repositories/testdb"
	"soundcrew/utils"
)

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// recordingBus keeps every published envelope.
type recordingBus struct {
	mu   sync.Mutex
	envs []realtime.Envelope
}

func (b *recordingBus) Publish(_ context.Context, env realtime.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envs = append(b.envs, env)
	return nil
}

func (b *recordingBus) events(typ string) []realtime.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []realtime.Envelope
	for _, e := range b.envs {
		if e.Event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type sentPush struct {
	tokens []string
	n      PushNotification
}

type fakePusher struct {
	mu      sync.Mutex
	sent    []sentPush
	invalid []string
}

func (p *fakePusher) Send(_ context.Context, tokens []string, n PushNotification) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentPush{tokens: tokens, n: n})
	return p.invalid, nil
}

// fakeClock is a settable clock shared by the services of a fixture.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db       *repositories.DB
	clock    *fakeClock
	cache    *memCache
	bus      *recordingBus
	pusher   *fakePusher
	users    *repositories.UserRepository
	artists  *ArtistService
	messages *MessageService
	requests *RequestService
	metrics  *MetricsService
	push     *PushService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	log := zap.NewNop().Sugar()

	f := &fixture{
		db:     db,
		clock:  &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		cache:  newMemCache(),
		bus:    &recordingBus{},
		pusher: &fakePusher{},
		users:  &repositories.UserRepository{DB: db},
	}

	artistRepo := &repositories.ArtistRepository{DB: db}
	requestRepo := &repositories.ArtistRequestRepository{DB: db}
	messageRepo := &repositories.MessageRepository{DB: db}

	f.metrics = &MetricsService{
		RequestRepo: requestRepo,
		MessageRepo: messageRepo,
		Cache:       f.cache,
		TTL:         time.Minute,
		Logger:      log,
	}
	f.push = &PushService{
		UserRepo:   f.users,
		DeviceRepo: &repositories.DeviceRepository{DB: db},
		Client:     f.pusher,
		Logger:     log,
	}
	f.artists = &ArtistService{
		DB:          db,
		ArtistRepo:  artistRepo,
		SaveRepo:    &repositories.ArtistSaveRepository{DB: db},
		ViewRepo:    &repositories.ArtistViewRepository{DB: db},
		ReviewRepo:  &repositories.ArtistReviewRepository{DB: db},
		RequestRepo: requestRepo,
		Metrics:     f.metrics,
		Cache:       f.cache,
		Logger:      log,
		now:         f.clock.Now,
	}
	f.messages = &MessageService{
		DB:          db,
		ThreadRepo:  &repositories.ThreadRepository{DB: db},
		MessageRepo: messageRepo,
		UserRepo:    f.users,
		ArtistRepo:  artistRepo,
		Metrics:     f.metrics,
		Bus:         f.bus,
		Push:        f.push,
		Logger:      log,
		now:         f.clock.Now,
	}
	f.requests = &RequestService{
		DB:          db,
		RequestRepo: requestRepo,
		ArtistRepo:  artistRepo,
		Messages:    f.messages,
		Metrics:     f.metrics,
		Push:        f.push,
		Logger:      log,
		now:         f.clock.Now,
	}
	return f
}

func (f *fixture) newUser(t *testing.T, name string) models.User {
	t.Helper()
	key := name
	u := models.User{
		ID:            uuid.NewString(),
		Email:         &[]string{name + "@example.com"}[0],
		Name:          &name,
		NicknameKey:   &key,
		NotifyMessage: true,
		NotifyRequest: true,
		CreatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) newArtist(t *testing.T, owner models.User) models.ArtistProfile {
	t.Helper()
	a, err := f.artists.CreateArtist(context.Background(), owner.ID, artistInput())
	require.NoError(t, err)
	return a
}

func artistInput() models.ArtistInput {
	return models.ArtistInput{
		StageName: "Nova",
		Roles:     []string{"SINGER"},
		Genres:    []string{"POP", "RNB"},
		MainGenre: "POP",
	}
}

func newTokenManager(t *testing.T) *utils.Manager {
	t.Helper()
	m, err := utils.NewManager("test-secret")
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }
