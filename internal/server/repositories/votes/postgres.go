package votes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) TogglePost(ctx context.Context, postID, userID int64) (bool, error) {
	return r.toggle(ctx, "post_votes", "post_id", postID, userID)
}

func (r *PostgresRepository) ToggleReply(ctx context.Context, replyID, userID int64) (bool, error) {
	return r.toggle(ctx, "reply_votes", "reply_id", replyID, userID)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM post_votes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reply_votes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// table and column are package constants, never user input.
func (r *PostgresRepository) toggle(ctx context.Context, table, column string, targetID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, table, column), targetID, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, column), targetID, userID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return true, nil
}
