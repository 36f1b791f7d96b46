package repositories

import (
	"context"
	"fmt"

	"soundcrew/internal/models"
)

type ArtistReviewRepository struct {
	DB *DB
}

func (r *ArtistReviewRepository) CreateReview(ctx context.Context, rv models.ArtistReview) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO artist_reviews (id, artist_id, reviewer_id, request_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.ArtistID, rv.ReviewerID, rv.RequestID, rv.Rating, rv.Comment, dbTime(rv.CreatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create review: %w", models.ErrDuplicate)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// GetReviewsByArtist returns reviews newest first with the author's display data.
func (r *ArtistReviewRepository) GetReviewsByArtist(ctx context.Context, artistID string) ([]models.ArtistReview, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT rv.id, rv.artist_id, rv.reviewer_id, rv.request_id, u.name, u.image, rv.rating, rv.comment, rv.created_at
		FROM artist_reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE rv.artist_id = ?
		ORDER BY rv.created_at DESC`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.ArtistReview{}
	for rows.Next() {
		var rv models.ArtistReview
		var name *string
		if err := rows.Scan(&rv.ID, &rv.ArtistID, &rv.ReviewerID, &rv.RequestID, &name, &rv.AuthorAvatarURL,
			&rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.AuthorName = models.NoNameLabel
		if name != nil {
			rv.AuthorName = *name
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
