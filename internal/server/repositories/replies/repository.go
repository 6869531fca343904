package replies

import (
	"context"

	"github.com/dmitrijs2005/oakboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, reply *models.Reply) (*models.Reply, error)
	GetByID(ctx context.Context, id int64) (*models.Reply, error)
	ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]*models.Reply, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}
