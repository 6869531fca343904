package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
)

const selectPost = `SELECT p.id, p.title, p.content, p.view, p.file_name, p.file_path, p.created_at, p.modified_at,
		u.id, u.username, u.profile_img,
		(SELECT COUNT(*) FROM post_votes v WHERE v.post_id = p.id) AS vote_count
	FROM posts p
	JOIN users u ON u.id = p.author_id`

const keywordFilter = `WHERE $1 = ''
		OR p.title ILIKE '%' || $1 || '%' ESCAPE '\'
		OR p.content ILIKE '%' || $1 || '%' ESCAPE '\'
		OR u.username ILIKE '%' || $1 || '%' ESCAPE '\'`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (title, content, author_id, file_name, file_path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Author.ID, nullable(post.FileName), nullable(post.FilePath)).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPost+` WHERE p.id = $1`, id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, int64, error) {
	kw := escapeLike(keyword)

	var total int64
	countQuery := `SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id ` + keywordFilter
	if err := r.db.QueryRowContext(ctx, countQuery, kw).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	query := selectPost + ` ` + keywordFilter + ` ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`
	list, err := r.list(ctx, query, kw, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.id DESC`, authorID)
}

func (r *PostgresRepository) ListVotedBy(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := selectPost + ` WHERE EXISTS (SELECT 1 FROM post_votes pv WHERE pv.post_id = p.id AND pv.user_id = $1)
	ORDER BY p.created_at DESC, p.id DESC`
	return r.list(ctx, query, userID)
}

// Update writes title, content and attachment fields and stamps modified_at.
func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts SET title = $1, content = $2, file_name = $3, file_path = $4, modified_at = now()
		 WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		post.Title, post.Content, nullable(post.FileName), nullable(post.FilePath), post.ID)
	return dbx.RequireAffected(res, err)
}

func (r *PostgresRepository) IncrementView(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET view = view + 1 WHERE id = $1`, id)
	return dbx.RequireAffected(res, err)
}

// Delete removes the post; replies and votes cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return dbx.RequireAffected(res, err)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		p          models.Post
		fileName   sql.NullString
		filePath   sql.NullString
		modifiedAt sql.NullTime
		profileImg sql.NullString
	)

	err := s.Scan(&p.ID, &p.Title, &p.Content, &p.View, &fileName, &filePath, &p.CreatedAt, &modifiedAt,
		&p.Author.ID, &p.Author.Username, &profileImg, &p.VoteCount)
	if err != nil {
		return nil, err
	}

	p.FileName = fileName.String
	p.FilePath = filePath.String
	p.Author.ProfileImg = profileImg.String
	if modifiedAt.Valid {
		t := modifiedAt.Time
		p.ModifiedAt = &t
	}

	return &p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes keyword match literally inside an ILIKE pattern.
func escapeLike(keyword string) string {
	return likeEscaper.Replace(strings.TrimSpace(keyword))
}
