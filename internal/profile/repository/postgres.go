package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tes-app/tes-backend/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.UserProfile, error) {
	query := `
		SELECT user_id, user_gender, user_bd, user_first_login, user_country
		FROM user_profiles
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		var p domain.UserProfile
		if err := rows.Scan(&p.ID, &p.Gender, &p.Birthday, &p.FirstLogin, &p.Country); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, user_gender, user_bd, user_first_login, user_country
		FROM user_profiles
		WHERE user_id = $1
	`

	var p domain.UserProfile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.Gender, &p.Birthday, &p.FirstLogin, &p.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put upserts; a second create for the same user overwrites the first.
func (r *PostgresRepository) Put(ctx context.Context, profile domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, user_gender, user_bd, user_first_login, user_country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			user_gender = EXCLUDED.user_gender,
			user_bd = EXCLUDED.user_bd,
			user_first_login = EXCLUDED.user_first_login,
			user_country = EXCLUDED.user_country,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Gender, profile.Birthday, profile.FirstLogin, profile.Country)
	return err
}
