package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"soundcrew/internal/models"
)

type ArtistRepository struct {
	DB *DB
}

const artistColumns = `id, slug, user_id, stage_name, short_intro, roles, genres, main_genre, online_available,
	offline_available, offline_regions, average_work_duration, portfolio_text, portfolio_links, avatar_url,
	avatar_key, created_at, updated_at`

func scanArtist(row rowScanner) (models.ArtistProfile, error) {
	var a models.ArtistProfile
	var roles, genres, regions, links stringList
	err := row.Scan(
		&a.ID, &a.Slug, &a.UserID, &a.StageName, &a.ShortIntro, &roles, &genres, &a.MainGenre, &a.OnlineAvailable,
		&a.OfflineAvailable, &regions, &a.AverageWorkDuration, &a.PortfolioText, &links, &a.AvatarURL,
		&a.AvatarKey, &a.CreatedAt, &a.UpdatedAt,
	)
	a.Roles, a.Genres, a.OfflineRegions, a.PortfolioLinks = roles, genres, regions, links
	return a, err
}

func (r *ArtistRepository) CountArtists(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(1) FROM artist_profiles`).Scan(&n)
	return n, err
}

// CreateArtist inserts the profile with all of its children. Call it inside InTx.
func (r *ArtistRepository) CreateArtist(ctx context.Context, a models.ArtistProfile) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO artist_profiles (`+artistColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Slug, a.UserID, a.StageName, a.ShortIntro, stringList(a.Roles), stringList(a.Genres), a.MainGenre,
		a.OnlineAvailable, a.OfflineAvailable, stringList(a.OfflineRegions), a.AverageWorkDuration, a.PortfolioText,
		stringList(a.PortfolioLinks), a.AvatarURL, a.AvatarKey, dbTime(a.CreatedAt), dbTime(a.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create artist: %w", models.ErrDuplicate)
		}
		return fmt.Errorf("create artist: %w", err)
	}
	return r.insertChildren(ctx, a)
}

// ReplaceArtist overwrites the profile columns and recreates every child row. Call it inside InTx.
func (r *ArtistRepository) ReplaceArtist(ctx context.Context, a models.ArtistProfile) error {
	res, err := r.DB.Exec(ctx, `UPDATE artist_profiles SET stage_name = ?, short_intro = ?, roles = ?, genres = ?,
		main_genre = ?, online_available = ?, offline_available = ?, offline_regions = ?, average_work_duration = ?,
		portfolio_text = ?, portfolio_links = ?, avatar_url = ?, avatar_key = ?, updated_at = ? WHERE id = ?`,
		a.StageName, a.ShortIntro, stringList(a.Roles), stringList(a.Genres), a.MainGenre, a.OnlineAvailable,
		a.OfflineAvailable, stringList(a.OfflineRegions), a.AverageWorkDuration, a.PortfolioText,
		stringList(a.PortfolioLinks), a.AvatarURL, a.AvatarKey, dbTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update artist: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if err := r.deleteChildren(ctx, a.ID, childTables); err != nil {
		return err
	}
	return r.insertChildren(ctx, a)
}

var childTables = []string{"artist_tracks", "artist_photos", "artist_videos", "artist_equipment", "artist_rates"}

// DeleteArtist removes the profile with everything that references it. Call it inside InTx.
func (r *ArtistRepository) DeleteArtist(ctx context.Context, id string) error {
	tables := append([]string{"artist_reviews", "artist_saves", "artist_views", "artist_requests"}, childTables...)
	if err := r.deleteChildren(ctx, id, tables); err != nil {
		return err
	}
	res, err := r.DB.Exec(ctx, `DELETE FROM artist_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	return expectAffected(res)
}

func (r *ArtistRepository) deleteChildren(ctx context.Context, artistID string, tables []string) error {
	for _, table := range tables {
		if _, err := r.DB.Exec(ctx, `DELETE FROM `+table+` WHERE artist_id = ?`, artistID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (r *ArtistRepository) insertChildren(ctx context.Context, a models.ArtistProfile) error {
	for _, t := range a.Tracks {
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO artist_tracks (id, artist_id, title, source_type, url, file_key, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, a.ID, t.Title, t.SourceType, t.URL, t.FileKey, t.SortOrder,
		); err != nil {
			return fmt.Errorf("insert track: %w", err)
		}
	}
	for _, p := range a.Photos {
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO artist_photos (id, artist_id, url, file_key, is_main, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, a.ID, p.URL, p.FileKey, p.IsMain, p.SortOrder,
		); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}
	for _, v := range a.Videos {
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO artist_videos (id, artist_id, title, url, sort_order) VALUES (?, ?, ?, ?, ?)`,
			v.ID, a.ID, v.Title, v.URL, v.SortOrder,
		); err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
	}
	for _, e := range a.Equipment {
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO artist_equipment (id, artist_id, category, name, sort_order) VALUES (?, ?, ?, ?, ?)`,
			e.ID, a.ID, e.Category, e.Name, e.SortOrder,
		); err != nil {
			return fmt.Errorf("insert equipment: %w", err)
		}
	}
	for _, rt := range a.Rates {
		if _, err := r.DB.Exec(ctx,
			`INSERT INTO artist_rates (id, artist_id, title, amount, sort_order) VALUES (?, ?, ?, ?, ?)`,
			rt.ID, a.ID, rt.Title, rt.Amount, rt.SortOrder,
		); err != nil {
			return fmt.Errorf("insert rate: %w", err)
		}
	}
	return nil
}

func (r *ArtistRepository) getOne(ctx context.Context, column, value string) (models.ArtistProfile, error) {
	a, err := scanArtist(r.DB.QueryRow(ctx, `SELECT `+artistColumns+` FROM artist_profiles WHERE `+column+` = ?`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ArtistProfile{}, models.ErrNoRecord
		}
		return models.ArtistProfile{}, err
	}
	list := []models.ArtistProfile{a}
	if err := r.loadChildren(ctx, list, true); err != nil {
		return models.ArtistProfile{}, err
	}
	return list[0], nil
}

func (r *ArtistRepository) GetArtistByID(ctx context.Context, id string) (models.ArtistProfile, error) {
	return r.getOne(ctx, "id", id)
}

func (r *ArtistRepository) GetArtistBySlug(ctx context.Context, slug string) (models.ArtistProfile, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *ArtistRepository) GetArtistByUserID(ctx context.Context, userID string) (models.ArtistProfile, error) {
	return r.getOne(ctx, "user_id", userID)
}

// GetArtistIDByUserID is the cheap lookup used by counters and request inboxes.
func (r *ArtistRepository) GetArtistIDByUserID(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `SELECT id FROM artist_profiles WHERE user_id = ?`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNoRecord
	}
	return id, err
}

// likeEscaper neutralises LIKE wildcards in user input matched with ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ListArtists returns profiles newest first with tracks and photos loaded.
func (r *ArtistRepository) ListArtists(ctx context.Context, f models.ArtistFilter) ([]models.ArtistProfile, error) {
	var where []string
	var args []any
	if f.Genre != "" {
		where = append(where, "genres LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(`"`+f.Genre+`"`))
	}
	if f.Role != "" {
		where = append(where, "roles LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(`"`+f.Role+`"`))
	}
	if f.Online {
		where = append(where, "online_available = ?")
		args = append(args, true)
	}
	if f.Offline {
		where = append(where, "offline_available = ?")
		args = append(args, true)
	}
	if f.Region != "" {
		where = append(where, "offline_regions LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(jsonText(f.Region)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "LOWER(stage_name) LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(strings.ToLower(q)))
	}

	query := `SELECT ` + artistColumns + ` FROM artist_profiles`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

// ListSavedArtists returns the profiles a user saved, most recently saved first.
func (r *ArtistRepository) ListSavedArtists(ctx context.Context, userID string) ([]models.ArtistProfile, error) {
	query := `SELECT ` + prefixColumns(artistColumns, "a") + `
		FROM artist_profiles a
		JOIN artist_saves s ON s.artist_id = a.id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *ArtistRepository) list(ctx context.Context, query string, args ...any) ([]models.ArtistProfile, error) {
	artists, err := r.scanAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, artists, false); err != nil {
		return nil, err
	}
	return artists, nil
}

func (r *ArtistRepository) scanAll(ctx context.Context, query string, args ...any) ([]models.ArtistProfile, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artists := []models.ArtistProfile{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

// loadChildren fills tracks and photos for every artist with one query per
// table; full also loads videos, equipment and rates.
func (r *ArtistRepository) loadChildren(ctx context.Context, artists []models.ArtistProfile, full bool) error {
	if len(artists) == 0 {
		return nil
	}
	ids := make([]string, len(artists))
	index := make(map[string]int, len(artists))
	for i := range artists {
		ids[i] = artists[i].ID
		index[artists[i].ID] = i
		artists[i].Tracks = []models.ArtistTrack{}
		artists[i].Photos = []models.ArtistPhoto{}
		artists[i].Videos = []models.ArtistVideo{}
		artists[i].Equipment = []models.ArtistEquipment{}
		artists[i].Rates = []models.ArtistRate{}
	}
	in := placeholders(len(ids))
	args := stringArgs(ids)

	err := r.eachRow(ctx, `SELECT id, artist_id, title, source_type, url, file_key, sort_order FROM artist_tracks
		WHERE artist_id IN (`+in+`) ORDER BY sort_order, id`, args, func(row rowScanner) error {
		var t models.ArtistTrack
		if err := row.Scan(&t.ID, &t.ArtistID, &t.Title, &t.SourceType, &t.URL, &t.FileKey, &t.SortOrder); err != nil {
			return err
		}
		a := &artists[index[t.ArtistID]]
		a.Tracks = append(a.Tracks, t)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load tracks: %w", err)
	}

	err = r.eachRow(ctx, `SELECT id, artist_id, url, file_key, is_main, sort_order FROM artist_photos
		WHERE artist_id IN (`+in+`) ORDER BY sort_order, id`, args, func(row rowScanner) error {
		var p models.ArtistPhoto
		if err := row.Scan(&p.ID, &p.ArtistID, &p.URL, &p.FileKey, &p.IsMain, &p.SortOrder); err != nil {
			return err
		}
		a := &artists[index[p.ArtistID]]
		a.Photos = append(a.Photos, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load photos: %w", err)
	}

	if !full {
		return nil
	}

	err = r.eachRow(ctx, `SELECT id, artist_id, title, url, sort_order FROM artist_videos
		WHERE artist_id IN (`+in+`) ORDER BY sort_order, id`, args, func(row rowScanner) error {
		var v models.ArtistVideo
		if err := row.Scan(&v.ID, &v.ArtistID, &v.Title, &v.URL, &v.SortOrder); err != nil {
			return err
		}
		a := &artists[index[v.ArtistID]]
		a.Videos = append(a.Videos, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load videos: %w", err)
	}

	err = r.eachRow(ctx, `SELECT id, artist_id, category, name, sort_order FROM artist_equipment
		WHERE artist_id IN (`+in+`) ORDER BY sort_order, id`, args, func(row rowScanner) error {
		var e models.ArtistEquipment
		if err := row.Scan(&e.ID, &e.ArtistID, &e.Category, &e.Name, &e.SortOrder); err != nil {
			return err
		}
		a := &artists[index[e.ArtistID]]
		a.Equipment = append(a.Equipment, e)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load equipment: %w", err)
	}

	err = r.eachRow(ctx, `SELECT id, artist_id, title, amount, sort_order FROM artist_rates
		WHERE artist_id IN (`+in+`) ORDER BY sort_order, id`, args, func(row rowScanner) error {
		var rt models.ArtistRate
		if err := row.Scan(&rt.ID, &rt.ArtistID, &rt.Title, &rt.Amount, &rt.SortOrder); err != nil {
			return err
		}
		a := &artists[index[rt.ArtistID]]
		a.Rates = append(a.Rates, rt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("load rates: %w", err)
	}
	return nil
}

func (r *ArtistRepository) eachRow(ctx context.Context, query string, args []any, fn func(rowScanner) error) error {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
