package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soundcrew/internal/models"
)

type UserRepository struct {
	DB *DB
}

const userColumns = `id, email, password_hash, name, nickname_key, legal_name, birth_year, birth_day, gender,
	phone, phone_verified_at, kakao_user_id, image, notify_message, notify_request, notify_marketing,
	usage_tickets, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.NicknameKey, &u.LegalName, &u.BirthYear, &u.BirthDay, &u.Gender,
		&u.Phone, &u.PhoneVerifiedAt, &u.KakaoUserID, &u.Image, &u.NotifyMessage, &u.NotifyRequest, &u.NotifyMarketing,
		&u.UsageTickets, &u.CreatedAt,
	)
	return u, err
}

func (r *UserRepository) CreateUser(ctx context.Context, u models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.DB.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Name, u.NicknameKey, u.LegalName, u.BirthYear, u.BirthDay, u.Gender,
		u.Phone, nullTime(u.PhoneVerifiedAt), u.KakaoUserID, u.Image, u.NotifyMessage, u.NotifyRequest, u.NotifyMarketing,
		u.UsageTickets, dbTime(u.CreatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", models.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNoRecord
	}
	return u, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNoRecord
	}
	return u, err
}

func (r *UserRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(1) FROM users WHERE `+column+` = ?`, value).Scan(&n)
	return n > 0, err
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

func (r *UserRepository) NicknameKeyExists(ctx context.Context, key string) (bool, error) {
	return r.exists(ctx, "nickname_key", key)
}

func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "phone", phone)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.Exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *UserRepository) UpdateNotifications(ctx context.Context, id string, s models.NotificationSettings) error {
	res, err := r.DB.Exec(ctx,
		`UPDATE users SET notify_message = ?, notify_request = ?, notify_marketing = ? WHERE id = ?`,
		s.NotifyMessage, s.NotifyRequest, s.NotifyMarketing, id,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// CreateConsent records a consent row; an identical (user, type, version) row is kept as is.
func (r *UserRepository) CreateConsent(ctx context.Context, c models.UserConsent) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO user_consents (id, user_id, type, version, user_agent, ip, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Type, c.Version, c.UserAgent, c.IP, dbTime(c.CreatedAt),
	)
	if err != nil && !isDuplicateKeyError(err) {
		return fmt.Errorf("create consent: %w", err)
	}
	return nil
}

func (r *UserRepository) ListConsents(ctx context.Context, userID string) ([]models.UserConsent, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, type, version, user_agent, ip, created_at FROM user_consents WHERE user_id = ? ORDER BY type`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consents []models.UserConsent
	for rows.Next() {
		var c models.UserConsent
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.Version, &c.UserAgent, &c.IP, &c.CreatedAt); err != nil {
			return nil, err
		}
		consents = append(consents, c)
	}
	return consents, rows.Err()
}

// GetParticipants loads display data for the given users: nickname, user image
// and the avatar of their artist profile if they own one.
func (r *UserRepository) GetParticipants(ctx context.Context, ids []string) (map[string]models.Participant, error) {
	out := make(map[string]models.Participant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT u.id, u.name, u.image, a.avatar_url
		FROM users u
		LEFT JOIN artist_profiles a ON a.user_id = u.id
		WHERE u.id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.DB.Query(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var name, image, avatar *string
		if err := rows.Scan(&id, &name, &image, &avatar); err != nil {
			return nil, err
		}
		p := models.Participant{ID: id, Name: models.NoNameLabel}
		if name != nil {
			p.Name = *name
		}
		switch {
		case avatar != nil:
			p.AvatarURL = avatar
		case image != nil:
			p.AvatarURL = image
		}
		out[id] = p
	}
	return out, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNoRecord
	}
	return nil
}
