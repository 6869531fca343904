package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
)

// PageSize is the number of posts per listing page.
const PageSize = 10

// maxPage keeps page*PageSize within int.
const maxPage = math.MaxInt/PageSize - 1

// PostInput is the create/edit form. File replaces the attachment;
// RemoveFile drops it when no new file is given.
type PostInput struct {
	Title      string
	Content    string
	File       *storage.Upload
	RemoveFile bool
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       storage.Store
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, files storage.Store, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		files:       files,
		logger:      logger.With("module", "posts"),
	}
}

// List returns page number page (from zero) of posts matching kw, newest
// first. An empty kw matches everything.
func (s *PostService) List(ctx context.Context, page int, kw string) (*models.Page[*models.Post], error) {
	page = min(max(page, 0), maxPage)

	items, total, err := s.repomanager.Posts(s.db).Search(ctx, kw, PageSize, page*PageSize)
	if err != nil {
		return nil, err
	}

	return models.NewPage(items, page, PageSize, total), nil
}

// Get counts a view and returns the post.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	repo := s.repomanager.Posts(s.db)

	if err := repo.IncrementView(ctx, id); err != nil {
		return nil, err
	}

	return repo.GetByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, username string, in PostInput) (*models.Post, error) {
	title, content, err := validatePost(in)
	if err != nil {
		return nil, err
	}

	author, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		Author:  models.Author{ID: author.ID, Username: author.Username, ProfileImg: author.ProfileImg},
	}

	if in.File != nil {
		if err := s.attach(ctx, post, in.File); err != nil {
			return nil, err
		}
	}

	created, err := s.repomanager.Posts(s.db).Create(ctx, post)
	if err != nil {
		removeStored(ctx, s.files, s.logger, post.FilePath)
		return nil, err
	}

	s.logger.Info(ctx, "post created", "id", created.ID, "author", username)
	return created, nil
}

// Modify edits a post owned by username.
func (s *PostService) Modify(ctx context.Context, username string, id int64, in PostInput) (*models.Post, error) {
	title, content, err := validatePost(in)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(username) {
		return nil, common.ErrorForbidden
	}

	oldPath := post.FilePath
	post.Title = title
	post.Content = content

	switch {
	case in.File != nil:
		if err := s.attach(ctx, post, in.File); err != nil {
			return nil, err
		}
	case in.RemoveFile:
		post.FileName = ""
		post.FilePath = ""
	}

	if err := repo.Update(ctx, post); err != nil {
		if post.FilePath != oldPath {
			removeStored(ctx, s.files, s.logger, post.FilePath)
		}
		return nil, err
	}

	if post.FilePath != oldPath {
		removeStored(ctx, s.files, s.logger, oldPath)
	}

	return repo.GetByID(ctx, id)
}

// Delete removes a post owned by username together with its attachment.
func (s *PostService) Delete(ctx context.Context, username string, id int64) error {
	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !post.IsOwnedBy(username) {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	removeStored(ctx, s.files, s.logger, post.FilePath)
	s.logger.Info(ctx, "post deleted", "id", id, "author", username)
	return nil
}

// Vote toggles username's vote on the post and reports whether it is set.
func (s *PostService) Vote(ctx context.Context, username string, id int64) (bool, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.repomanager.Votes(s.db).TogglePost(ctx, id, user.ID)
}

func (s *PostService) MyPosts(ctx context.Context, username string) ([]*models.Post, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Posts(s.db).ListByAuthor(ctx, user.ID)
}

// LikedPosts lists the posts username has voted for.
func (s *PostService) LikedPosts(ctx context.Context, username string) ([]*models.Post, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Posts(s.db).ListVotedBy(ctx, user.ID)
}

func (s *PostService) attach(ctx context.Context, post *models.Post, u *storage.Upload) error {
	key, err := s.files.Save(ctx, *u)
	if err != nil {
		return fmt.Errorf("error saving attachment: %w", err)
	}
	post.FileName = u.Name
	post.FilePath = storage.PublicPath(key)
	return nil
}

func validatePost(in PostInput) (string, string, error) {
	title, err := requireText("title", in.Title, maxTitleLength)
	if err != nil {
		return "", "", err
	}
	content, err := requireText("content", in.Content, 0)
	if err != nil {
		return "", "", err
	}
	return title, content, nil
}
