package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundcrew/internal/models"
)

type ArtistRequestRepository struct {
	DB *DB
}

const requestColumns = `id, artist_id, requester_id, short_help, description, reference_links, status, thread_id, created_at, updated_at`

func scanRequest(row rowScanner, extra ...any) (models.ArtistRequest, error) {
	var req models.ArtistRequest
	var links stringList
	dest := append([]any{
		&req.ID, &req.ArtistID, &req.RequesterID, &req.ShortHelp, &req.Description, &links, &req.Status,
		&req.ThreadID, &req.CreatedAt, &req.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	req.ReferenceLinks = links
	return req, err
}

func (r *ArtistRequestRepository) CreateRequest(ctx context.Context, req models.ArtistRequest) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO artist_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.ArtistID, req.RequesterID, req.ShortHelp, req.Description, stringList(req.ReferenceLinks),
		req.Status, req.ThreadID, dbTime(req.CreatedAt), dbTime(req.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return fmt.Errorf("create request: %w", models.ErrNoRecord)
		}
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (r *ArtistRequestRepository) GetRequestByID(ctx context.Context, id string) (models.ArtistRequest, error) {
	req, err := scanRequest(r.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM artist_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ArtistRequest{}, models.ErrNoRecord
	}
	return req, err
}

func (r *ArtistRequestRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	res, err := r.DB.Exec(ctx, `UPDATE artist_requests SET status = ?, updated_at = ? WHERE id = ?`, status, dbTime(at), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

var requestListQuery = `SELECT ` + prefixColumns(requestColumns, "r") + `, a.slug, a.stage_name, u.name
	FROM artist_requests r
	JOIN artist_profiles a ON a.id = r.artist_id
	JOIN users u ON u.id = r.requester_id`

// ListSentRequests returns requests the user made, newest first.
func (r *ArtistRequestRepository) ListSentRequests(ctx context.Context, requesterID string) ([]models.RequestListItem, error) {
	return r.listItems(ctx, requestListQuery+` WHERE r.requester_id = ? ORDER BY r.created_at DESC`, requesterID)
}

// ListReceivedRequests returns requests addressed to the artist profile, newest first.
func (r *ArtistRequestRepository) ListReceivedRequests(ctx context.Context, artistID string) ([]models.RequestListItem, error) {
	return r.listItems(ctx, requestListQuery+` WHERE r.artist_id = ? ORDER BY r.created_at DESC`, artistID)
}

func (r *ArtistRequestRepository) listItems(ctx context.Context, query string, args ...any) ([]models.RequestListItem, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.RequestListItem{}
	for rows.Next() {
		var item models.RequestListItem
		req, err := scanRequest(rows, &item.ArtistSlug, &item.ArtistStageName, &item.RequesterName)
		if err != nil {
			return nil, err
		}
		item.ArtistRequest = req
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetRequestTimings returns the fields the response metrics need for every request of the artist.
func (r *ArtistRequestRepository) GetRequestTimings(ctx context.Context, artistID string) ([]models.RequestTiming, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT status, thread_id, created_at FROM artist_requests WHERE artist_id = ? ORDER BY created_at`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timings []models.RequestTiming
	for rows.Next() {
		var t models.RequestTiming
		if err := rows.Scan(&t.Status, &t.ThreadID, &t.CreatedAt); err != nil {
			return nil, err
		}
		timings = append(timings, t)
	}
	return timings, rows.Err()
}

// FindReviewableRequest returns a completed request by the reviewer for the
// artist that has no review yet.
func (r *ArtistRequestRepository) FindReviewableRequest(ctx context.Context, artistID, reviewerID string) (models.ArtistRequest, error) {
	req, err := scanRequest(r.DB.QueryRow(ctx, `SELECT `+prefixColumns(requestColumns, "r")+`
		FROM artist_requests r
		LEFT JOIN artist_reviews rv ON rv.request_id = r.id
		WHERE r.artist_id = ? AND r.requester_id = ? AND r.status = ? AND rv.id IS NULL
		ORDER BY r.updated_at DESC
		LIMIT 1`, artistID, reviewerID, models.RequestCompleted))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ArtistRequest{}, models.ErrNoRecord
	}
	return req, err
}
