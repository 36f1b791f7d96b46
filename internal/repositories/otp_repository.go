package repositories

import (
	"context"
	"database/sql"
	"errors"

	"soundcrew/internal/models"
)

type OtpRepository struct {
	DB *DB
}

func (r *OtpRepository) CreateOtp(ctx context.Context, otp models.PhoneOtp) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO phone_otps (id, phone, code_hash, expires_at, attempts, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		otp.ID, otp.Phone, otp.CodeHash, dbTime(otp.ExpiresAt), otp.Attempts, dbTime(otp.CreatedAt),
	)
	return err
}

// GetLatestOtp returns the most recently issued code for the phone.
func (r *OtpRepository) GetLatestOtp(ctx context.Context, phone string) (models.PhoneOtp, error) {
	var otp models.PhoneOtp
	err := r.DB.QueryRow(ctx,
		`SELECT id, phone, code_hash, expires_at, attempts, created_at
		 FROM phone_otps WHERE phone = ? ORDER BY created_at DESC LIMIT 1`,
		phone,
	).Scan(&otp.ID, &otp.Phone, &otp.CodeHash, &otp.ExpiresAt, &otp.Attempts, &otp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PhoneOtp{}, models.ErrNoRecord
	}
	return otp, err
}

func (r *OtpRepository) IncrementAttempts(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE phone_otps SET attempts = attempts + 1 WHERE id = ?`, id)
	return err
}

func (r *OtpRepository) DeleteOtp(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM phone_otps WHERE id = ?`, id)
	return err
}
