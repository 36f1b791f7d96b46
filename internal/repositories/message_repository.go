package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundcrew/internal/models"
)

type MessageRepository struct {
	DB *DB
}

const messageColumns = `id, thread_id, sender_id, body, attachment_url, attachment_key, attachment_name,
	attachment_type, attachment_size, created_at, read_at`

func scanMessage(row rowScanner) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.AttachmentURL, &m.AttachmentKey, &m.AttachmentName,
		&m.AttachmentType, &m.AttachmentSize, &m.CreatedAt, &m.ReadAt)
	return m, err
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m models.Message) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.SenderID, m.Body, m.AttachmentURL, m.AttachmentKey, m.AttachmentName,
		m.AttachmentType, m.AttachmentSize, dbTime(m.CreatedAt), nullTime(m.ReadAt))
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// GetMessagesForThread returns all messages of a thread in chronological order.
func (r *MessageRepository) GetMessagesForThread(ctx context.Context, threadID string) ([]models.Message, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE thread_id = ? ORDER BY created_at, id`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) GetLastMessage(ctx context.Context, threadID string) (models.Message, error) {
	m, err := scanMessage(r.DB.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages
		WHERE thread_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, threadID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, models.ErrNoRecord
	}
	return m, err
}

// MarkRead stamps every unread message in the thread not written by the reader.
func (r *MessageRepository) MarkRead(ctx context.Context, threadID, readerID string, at time.Time) (int64, error) {
	res, err := r.DB.Exec(ctx, `UPDATE messages SET read_at = ?
		WHERE thread_id = ? AND sender_id <> ? AND read_at IS NULL`, dbTime(at), threadID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MessageRepository) CountUnread(ctx context.Context, threadID, userID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(1) FROM messages
		WHERE thread_id = ? AND sender_id <> ? AND read_at IS NULL`, threadID, userID).Scan(&n)
	return n, err
}

// GetFirstResponses maps each thread to the earliest message the sender wrote in it.
func (r *MessageRepository) GetFirstResponses(ctx context.Context, threadIDs []string, senderID string) (map[string]time.Time, error) {
	first := make(map[string]time.Time, len(threadIDs))
	if len(threadIDs) == 0 {
		return first, nil
	}
	args := append(stringArgs(threadIDs), senderID)
	rows, err := r.DB.Query(ctx, `SELECT thread_id, created_at FROM messages
		WHERE thread_id IN (`+placeholders(len(threadIDs))+`) AND sender_id = ?
		ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var threadID string
		var createdAt time.Time
		if err := rows.Scan(&threadID, &createdAt); err != nil {
			return nil, err
		}
		if _, seen := first[threadID]; !seen {
			first[threadID] = createdAt
		}
	}
	return first, rows.Err()
}
