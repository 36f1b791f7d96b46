package repositories

import (
	"context"

	"soundcrew/internal/models"
)

type ArtistViewRepository struct {
	DB *DB
}

func (r *ArtistViewRepository) CreateView(ctx context.Context, v models.ArtistView) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO artist_views (id, artist_id, viewer_id, created_at) VALUES (?, ?, ?, ?)`,
		v.ID, v.ArtistID, v.ViewerID, dbTime(v.CreatedAt),
	)
	return err
}

func (r *ArtistViewRepository) CountViews(ctx context.Context, artistID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(1) FROM artist_views WHERE artist_id = ?`, artistID).Scan(&n)
	return n, err
}
