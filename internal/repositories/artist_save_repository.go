package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soundcrew/internal/models"
)

type ArtistSaveRepository struct {
	DB *DB
}

func (r *ArtistSaveRepository) FindSave(ctx context.Context, artistID, userID string) (models.ArtistSave, error) {
	var s models.ArtistSave
	err := r.DB.QueryRow(ctx,
		`SELECT id, artist_id, user_id, created_at FROM artist_saves WHERE artist_id = ? AND user_id = ?`,
		artistID, userID,
	).Scan(&s.ID, &s.ArtistID, &s.UserID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ArtistSave{}, models.ErrNoRecord
	}
	return s, err
}

func (r *ArtistSaveRepository) CreateSave(ctx context.Context, s models.ArtistSave) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO artist_saves (id, artist_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.ArtistID, s.UserID, dbTime(s.CreatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create save: %w", models.ErrDuplicate)
		}
		return fmt.Errorf("create save: %w", err)
	}
	return nil
}

func (r *ArtistSaveRepository) DeleteSave(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM artist_saves WHERE id = ?`, id)
	return err
}

func (r *ArtistSaveRepository) CountSaves(ctx context.Context, artistID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(1) FROM artist_saves WHERE artist_id = ?`, artistID).Scan(&n)
	return n, err
}
