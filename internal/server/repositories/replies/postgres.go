package replies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
)

const selectReply = `SELECT r.id, r.post_id, r.content, r.created_at, r.modified_at,
		u.id, u.username, u.profile_img,
		(SELECT COUNT(*) FROM reply_votes v WHERE v.reply_id = r.id) AS vote_count
	FROM replies r
	JOIN users u ON u.id = r.author_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, reply *models.Reply) (*models.Reply, error) {
	query :=
		`INSERT INTO replies (post_id, author_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, reply.PostID, reply.Author.ID, reply.Content).
		Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reply, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Reply, error) {
	reply, err := scanReply(r.db.QueryRowContext(ctx, selectReply+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reply, nil
}

// ListByPost returns the thread in posting order.
func (r *PostgresRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error) {
	return r.list(ctx, selectReply+` WHERE r.post_id = $1 ORDER BY r.created_at, r.id`, postID)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Reply, error) {
	return r.list(ctx, selectReply+` WHERE r.author_id = $1 ORDER BY r.created_at DESC, r.id DESC`, authorID)
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE replies SET content = $1, modified_at = now() WHERE id = $2`, content, id)
	return dbx.RequireAffected(res, err)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM replies WHERE id = $1`, id)
	return dbx.RequireAffected(res, err)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Reply, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Reply{}
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReply(s scanner) (*models.Reply, error) {
	var (
		reply      models.Reply
		modifiedAt sql.NullTime
		profileImg sql.NullString
	)

	err := s.Scan(&reply.ID, &reply.PostID, &reply.Content, &reply.CreatedAt, &modifiedAt,
		&reply.Author.ID, &reply.Author.Username, &profileImg, &reply.VoteCount)
	if err != nil {
		return nil, err
	}

	reply.Author.ProfileImg = profileImg.String
	if modifiedAt.Valid {
		t := modifiedAt.Time
		reply.ModifiedAt = &t
	}

	return &reply, nil
}
