package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password_hash, profile_img, created_at FROM users
		 WHERE username = $1`

	user := &models.User{}
	var profileImg sql.NullString

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &profileImg, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ProfileImg = profileImg.String
	return user, nil
}

// UpdateProfileImg stores path as the profile image; an empty path clears it.
func (r *PostgresRepository) UpdateProfileImg(ctx context.Context, userID int64, path string) error {
	query := `UPDATE users SET profile_img = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, sql.NullString{String: path, Valid: path != ""}, userID)
	return dbx.RequireAffected(res, err)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return dbx.RequireAffected(res, err)
}

// Delete removes the account; posts, replies and votes go with it through
// ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return dbx.RequireAffected(res, err)
}
