package posts

import (
	"context"

	"github.com/dmitrijs2005/oakboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// Search returns one page of posts, newest first, whose title, content
	// or author username contains keyword, plus the total match count.
	Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error)
	ListVotedBy(ctx context.Context, userID int64) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	IncrementView(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
