package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
	"soundcrew/internal/repositories/testdb"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, db *repositories.DB, name string) models.User {
	t.Helper()
	u := models.User{
		ID:            uuid.NewString(),
		Email:         strPtr(name + "@example.com"),
		Name:          strPtr(name),
		NicknameKey:   strPtr(name),
		NotifyMessage: true,
		NotifyRequest: true,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, (&repositories.UserRepository{DB: db}).CreateUser(context.Background(), u))
	return u
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	require.NoError(t, repositories.Migrate(context.Background(), db))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	users := &repositories.UserRepository{DB: db}
	u := seedUser(t, db, "mina")

	got, err := users.GetUserByEmail(ctx, "mina@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.NotifyMessage)
	assert.False(t, got.NotifyMarketing)

	_, err = users.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNoRecord)

	dup := u
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, users.CreateUser(ctx, dup), models.ErrDuplicate)

	ok, err := users.NicknameKeyExists(ctx, "mina")
	require.NoError(t, err)
	assert.True(t, ok)

	consent := models.UserConsent{ID: uuid.NewString(), UserID: u.ID, Type: models.ConsentTerms, Version: "1.0", CreatedAt: time.Now()}
	require.NoError(t, users.CreateConsent(ctx, consent))
	consent.ID = uuid.NewString()
	require.NoError(t, users.CreateConsent(ctx, consent), "duplicate consent is skipped")
	consents, err := users.ListConsents(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, consents, 1)

	require.NoError(t, users.UpdateNotifications(ctx, u.ID, models.NotificationSettings{NotifyMarketing: true}))
	got, err = users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.NotifyMessage)
	assert.True(t, got.NotifyMarketing)
}

func TestFindPairThreadIsSymmetric(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	threads := &repositories.ThreadRepository{DB: db}
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	_, err := threads.FindPairThread(ctx, a.ID, b.ID)
	require.ErrorIs(t, err, models.ErrNoRecord)

	now := time.Now()
	th := models.MessageThread{ID: uuid.NewString(), UserAID: a.ID, UserBID: b.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, threads.CreateThread(ctx, th))

	ab, err := threads.FindPairThread(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ba, err := threads.FindPairThread(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, th.ID, ab.ID)
	assert.Equal(t, ab.ID, ba.ID)

	job := "job-1"
	jobThread := models.MessageThread{ID: uuid.NewString(), UserAID: a.ID, UserBID: b.ID, JobID: &job, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, threads.CreateThread(ctx, jobThread))
	ab, err = threads.FindPairThread(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, th.ID, ab.ID, "job threads are not direct threads")
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	threads := &repositories.ThreadRepository{DB: db}
	messages := &repositories.MessageRepository{DB: db}
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	th := models.MessageThread{ID: uuid.NewString(), UserAID: a.ID, UserBID: b.ID, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, threads.CreateThread(ctx, th))

	send := func(sender string, at time.Time, body string) {
		require.NoError(t, messages.CreateMessage(ctx, models.Message{
			ID: uuid.NewString(), ThreadID: th.ID, SenderID: sender, Body: body, CreatedAt: at,
		}))
	}
	send(a.ID, t0, "hi")
	send(b.ID, t0.Add(45*time.Minute), "hello")
	send(b.ID, t0.Add(50*time.Minute), "still there?")
	send(a.ID, t0.Add(55*time.Minute), "yes")

	n, err := messages.CountUnread(ctx, th.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := messages.GetFirstResponses(ctx, []string{th.ID}, b.ID)
	require.NoError(t, err)
	assert.True(t, first[th.ID].Equal(t0.Add(45*time.Minute)))

	last, err := messages.GetLastMessage(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "yes", last.Body)

	affected, err := messages.MarkRead(ctx, th.ID, a.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	all, err := messages.GetMessagesForThread(ctx, th.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, m := range all {
		if m.SenderID == a.ID {
			assert.Nil(t, m.ReadAt, "reader's own messages stay unread")
		} else {
			assert.NotNil(t, m.ReadAt)
		}
	}

	n, err = messages.CountUnread(ctx, th.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestArtistReplaceClearsChildren(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	artists := &repositories.ArtistRepository{DB: db}
	owner := seedUser(t, db, "owner")

	now := time.Now()
	a := models.ArtistProfile{
		ID: uuid.NewString(), Slug: "artist1", UserID: &owner.ID, StageName: "Owner",
		Roles: []string{"PRODUCER"}, Genres: []string{"POP", "JAZZ"}, MainGenre: strPtr("POP"),
		OnlineAvailable: true, OfflineRegions: []string{"서울"},
		AvatarURL: strPtr("https://cdn.example.com/a.jpg"),
		Photos: []models.ArtistPhoto{
			{ID: uuid.NewString(), URL: "https://cdn.example.com/a.jpg", IsMain: true},
			{ID: uuid.NewString(), URL: "https://cdn.example.com/b.jpg", SortOrder: 1},
		},
		Tracks:    []models.ArtistTrack{{ID: uuid.NewString(), SourceType: models.TrackLink, URL: "https://soundcloud.com/x"}},
		Rates:     []models.ArtistRate{{ID: uuid.NewString(), Title: "Mix", Amount: 100000}},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.InTx(ctx, func(ctx context.Context) error {
		return artists.CreateArtist(ctx, a)
	}))

	got, err := artists.GetArtistBySlug(ctx, "artist1")
	require.NoError(t, err)
	assert.Len(t, got.Photos, 2)
	assert.Len(t, got.Tracks, 1)
	assert.Len(t, got.Rates, 1)
	assert.Equal(t, []string{"POP", "JAZZ"}, got.Genres)

	list, err := artists.ListArtists(ctx, models.ArtistFilter{Genre: "JAZZ", Online: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = artists.ListArtists(ctx, models.ArtistFilter{Genre: "ROCK"})
	require.NoError(t, err)
	assert.Empty(t, list)

	a.Photos = nil
	a.Tracks = nil
	a.Rates = nil
	a.AvatarURL = nil
	require.NoError(t, db.InTx(ctx, func(ctx context.Context) error {
		return artists.ReplaceArtist(ctx, a)
	}))

	got, err = artists.GetArtistByUserID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Photos)
	assert.Empty(t, got.Tracks)
	assert.Empty(t, got.Rates)
	assert.Nil(t, got.DisplayAvatar())

	require.NoError(t, db.InTx(ctx, func(ctx context.Context) error {
		return artists.DeleteArtist(ctx, a.ID)
	}))
	_, err = artists.GetArtistByID(ctx, a.ID)
	assert.ErrorIs(t, err, models.ErrNoRecord)
}

func TestListArtistsMatchesLiterally(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	artists := &repositories.ArtistRepository{DB: db}

	seed := func(slug, name string, regions ...string) {
		now := time.Now()
		a := models.ArtistProfile{
			ID: uuid.NewString(), Slug: slug, StageName: name,
			Roles: []string{"MIXING_ENGINEER"}, Genres: []string{"RNB"}, MainGenre: strPtr("RNB"),
			OfflineAvailable: true, OfflineRegions: regions,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, db.InTx(ctx, func(ctx context.Context) error {
			return artists.CreateArtist(ctx, a)
		}))
	}
	seed("artist1", "DJ 100%", "R&B홀")
	seed("artist2", "Plain", "<서울>")

	cases := []struct {
		name   string
		filter models.ArtistFilter
		want   []string
	}{
		{"percent query", models.ArtistFilter{Query: "%"}, []string{"artist1"}},
		{"underscore query", models.ArtistFilter{Query: "_"}, nil},
		{"bang query", models.ArtistFilter{Query: "!"}, nil},
		{"percent genre", models.ArtistFilter{Genre: "%"}, nil},
		{"percent role", models.ArtistFilter{Role: "%"}, nil},
		{"underscore region", models.ArtistFilter{Region: "_"}, nil},
		{"ampersand region", models.ArtistFilter{Region: "R&B"}, []string{"artist1"}},
		{"angle region", models.ArtistFilter{Region: "<서울>"}, []string{"artist2"}},
		{"role with underscore", models.ArtistFilter{Role: "MIXING_ENGINEER"}, []string{"artist2", "artist1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := artists.ListArtists(ctx, tc.filter)
			require.NoError(t, err)
			var slugs []string
			for _, a := range list {
				slugs = append(slugs, a.Slug)
			}
			assert.ElementsMatch(t, tc.want, slugs)
		})
	}
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	users := &repositories.UserRepository{DB: db}
	u := seedUser(t, db, "rollback")

	err := db.InTx(ctx, func(ctx context.Context) error {
		if err := users.UpdatePassword(ctx, u.ID, "hash"); err != nil {
			return err
		}
		return models.ErrDuplicate
	})
	require.ErrorIs(t, err, models.ErrDuplicate)

	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PasswordHash)
}

func TestOtpRepositoryLatest(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	otps := &repositories.OtpRepository{DB: db}

	t0 := time.Now()
	older := models.PhoneOtp{ID: uuid.NewString(), Phone: "01012345678", CodeHash: "a", ExpiresAt: t0.Add(time.Minute), CreatedAt: t0.Add(-time.Minute)}
	newer := models.PhoneOtp{ID: uuid.NewString(), Phone: "01012345678", CodeHash: "b", ExpiresAt: t0.Add(3 * time.Minute), CreatedAt: t0}
	require.NoError(t, otps.CreateOtp(ctx, older))
	require.NoError(t, otps.CreateOtp(ctx, newer))

	got, err := otps.GetLatestOtp(ctx, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	require.NoError(t, otps.IncrementAttempts(ctx, got.ID))
	got, err = otps.GetLatestOtp(ctx, "01012345678")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	require.NoError(t, otps.DeleteOtp(ctx, newer.ID))
	require.NoError(t, otps.DeleteOtp(ctx, older.ID))
	_, err = otps.GetLatestOtp(ctx, "01012345678")
	assert.ErrorIs(t, err, models.ErrNoRecord)
}

func TestDeviceUpsertMovesToken(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	devices := &repositories.DeviceRepository{DB: db}
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	now := time.Now()
	require.NoError(t, devices.UpsertDevice(ctx, models.PushDevice{ID: uuid.NewString(), UserID: a.ID, Token: "tok", Platform: "ios", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, devices.UpsertDevice(ctx, models.PushDevice{ID: uuid.NewString(), UserID: b.ID, Token: "tok", Platform: "ios", CreatedAt: now, UpdatedAt: now}))

	tokens, err := devices.GetTokensByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
	tokens, err = devices.GetTokensByUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, tokens)
}
