package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundcrew/internal/models"
)

type ThreadRepository struct {
	DB *DB
}

const threadColumns = `id, user_a_id, user_b_id, job_id, created_at, updated_at`

func scanThread(row rowScanner) (models.MessageThread, error) {
	var t models.MessageThread
	err := row.Scan(&t.ID, &t.UserAID, &t.UserBID, &t.JobID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// FindPairThread looks up the direct (non-job) thread between two users in either order.
func (r *ThreadRepository) FindPairThread(ctx context.Context, userA, userB string) (models.MessageThread, error) {
	t, err := scanThread(r.DB.QueryRow(ctx, `SELECT `+threadColumns+` FROM message_threads
		WHERE job_id IS NULL AND ((user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?))
		ORDER BY created_at
		LIMIT 1`, userA, userB, userB, userA))
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageThread{}, models.ErrNoRecord
	}
	return t, err
}

func (r *ThreadRepository) CreateThread(ctx context.Context, t models.MessageThread) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO message_threads (`+threadColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserAID, t.UserBID, t.JobID, dbTime(t.CreatedAt), dbTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

func (r *ThreadRepository) GetThreadByID(ctx context.Context, id string) (models.MessageThread, error) {
	t, err := scanThread(r.DB.QueryRow(ctx, `SELECT `+threadColumns+` FROM message_threads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageThread{}, models.ErrNoRecord
	}
	return t, err
}

// ListThreadsByUser returns the user's threads, most recently active first.
func (r *ThreadRepository) ListThreadsByUser(ctx context.Context, userID string) ([]models.MessageThread, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+threadColumns+` FROM message_threads
		WHERE user_a_id = ? OR user_b_id = ?
		ORDER BY updated_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threads := []models.MessageThread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *ThreadRepository) TouchThread(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `UPDATE message_threads SET updated_at = ? WHERE id = ?`, dbTime(at), id)
	return err
}
