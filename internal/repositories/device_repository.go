package repositories

import (
	"context"
	"fmt"

	"soundcrew/internal/models"
)

type DeviceRepository struct {
	DB *DB
}

// UpsertDevice binds a push token to the user, moving it over if another user owned it.
func (r *DeviceRepository) UpsertDevice(ctx context.Context, d models.PushDevice) error {
	return r.DB.InTx(ctx, func(ctx context.Context) error {
		res, err := r.DB.Exec(ctx,
			`UPDATE push_devices SET user_id = ?, platform = ?, updated_at = ? WHERE token = ?`,
			d.UserID, d.Platform, dbTime(d.UpdatedAt), d.Token,
		)
		if err != nil {
			return fmt.Errorf("update device: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}
		_, err = r.DB.Exec(ctx,
			`INSERT INTO push_devices (id, user_id, token, platform, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.UserID, d.Token, d.Platform, dbTime(d.CreatedAt), dbTime(d.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert device: %w", err)
		}
		return nil
	})
}

func (r *DeviceRepository) GetTokensByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT token FROM push_devices WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *DeviceRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM push_devices WHERE token = ?`, token)
	return err
}
