package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/repomanager"
)

type ReplyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewReplyService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ReplyService {
	return &ReplyService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "replies"),
	}
}

// Write adds a reply by username under postID.
func (s *ReplyService) Write(ctx context.Context, username string, postID int64, content string) (*models.Reply, error) {
	content, err := requireText("content", content, 0)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Posts(s.db).GetByID(ctx, postID); err != nil {
		return nil, err
	}

	author, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	reply, err := s.repomanager.Replies(s.db).Create(ctx, &models.Reply{
		PostID:  postID,
		Content: content,
		Author:  models.Author{ID: author.ID, Username: author.Username, ProfileImg: author.ProfileImg},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "reply written", "id", reply.ID, "post", postID)
	return reply, nil
}

// ListByPost returns the replies of an existing post, oldest first.
func (s *ReplyService) ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error) {
	if _, err := s.repomanager.Posts(s.db).GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.repomanager.Replies(s.db).ListByPost(ctx, postID)
}

func (s *ReplyService) Edit(ctx context.Context, username string, id int64, content string) (*models.Reply, error) {
	content, err := requireText("content", content, 0)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Replies(s.db)

	reply, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reply.IsOwnedBy(username) {
		return nil, common.ErrorForbidden
	}

	if err := repo.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}

	return repo.GetByID(ctx, id)
}

func (s *ReplyService) Delete(ctx context.Context, username string, id int64) error {
	repo := s.repomanager.Replies(s.db)

	reply, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !reply.IsOwnedBy(username) {
		return common.ErrorForbidden
	}

	return repo.Delete(ctx, id)
}

// Vote toggles username's vote on the reply and reports whether it is set.
func (s *ReplyService) Vote(ctx context.Context, username string, id int64) (bool, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.repomanager.Votes(s.db).ToggleReply(ctx, id, user.ID)
}

func (s *ReplyService) MyReplies(ctx context.Context, username string) ([]*models.Reply, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Replies(s.db).ListByAuthor(ctx, user.ID)
}
