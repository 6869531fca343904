// Package services contains server-side business logic. UserService handles
// accounts: signup, credential checks, token issuance and profile changes.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/auth"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// SignupRequest carries the signup form.
type SignupRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	PasswordCheck string `json:"passwordCheck"`
}

// PasswordUpdateRequest carries the change-password form.
type PasswordUpdateRequest struct {
	OldPassword      string `json:"oldPassword"`
	NewPassword      string `json:"newPassword"`
	NewPasswordCheck string `json:"newPasswordCheck"`
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type UserOption func(*UserService)

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) { s.bcryptCost = cost }
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	files       storage.Store
	logger      logging.Logger
	bcryptCost  int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, files storage.Store, logger logging.Logger, opts ...UserOption) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		files:       files,
		logger:      logger.With("module", "users"),
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burnCompare spends the same time as a real password check so unknown
// usernames cannot be told apart by latency.
func (s *UserService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("oakboard-dummy-password"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	username, err := requireText("username", req.Username, maxUsernameLength)
	if err != nil {
		return nil, err
	}
	email, err := requireText("email", req.Email, maxEmailLength)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is malformed", common.ErrorValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if req.Password != req.PasswordCheck {
		return nil, common.ErrorPasswordMismatch
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user signed up", "username", user.Username)
	return user, nil
}

// Login checks credentials and issues an access token. Unknown users and
// wrong passwords give the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(password)
			return nil, common.ErrorInvalidLoginPassword
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, common.ErrorInvalidLoginPassword
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{Token: token, Username: user.Username}, nil
}

// FindByUsername is the principal lookup used by the request authenticator.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return auth.NewPrincipal(user.Username, user.PasswordHash), nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, username)
}

// UpdateProfileImage stores upload as the new profile image, or clears the
// image when upload is nil and remove is set. It returns the resulting
// public path ("" when there is none).
func (s *UserService) UpdateProfileImage(ctx context.Context, username string, upload *storage.Upload, remove bool) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	switch {
	case upload != nil:
		key, err := s.files.Save(ctx, *upload)
		if err != nil {
			return "", fmt.Errorf("error saving image: %w", err)
		}
		path := storage.PublicPath(key)
		if err := repo.UpdateProfileImg(ctx, user.ID, path); err != nil {
			s.removeFile(ctx, path)
			return "", err
		}
		s.removeFile(ctx, user.ProfileImg)
		return path, nil
	case remove:
		if err := repo.UpdateProfileImg(ctx, user.ID, ""); err != nil {
			return "", err
		}
		s.removeFile(ctx, user.ProfileImg)
		return "", nil
	default:
		return user.ProfileImg, nil
	}
}

func (s *UserService) UpdatePassword(ctx context.Context, username string, req PasswordUpdateRequest) error {
	if req.NewPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrorValidation)
	}
	if req.NewPassword != req.NewPasswordCheck {
		return common.ErrorPasswordMismatch
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !checkPassword(user.PasswordHash, req.OldPassword) {
		return fmt.Errorf("%w: current password is wrong", common.ErrorPasswordMismatch)
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}

	return repo.UpdatePassword(ctx, user.ID, hash)
}

// Delete removes the account after re-checking its password. Votes go first,
// then the user row; posts and replies cascade. Stored files are removed
// once the transaction commits.
func (s *UserService) Delete(ctx context.Context, username, password string) error {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !checkPassword(user.PasswordHash, password) {
		return fmt.Errorf("%w: password is wrong", common.ErrorPasswordMismatch)
	}

	posts, err := s.repomanager.Posts(s.db).ListByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Votes(tx).DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.removeFile(ctx, user.ProfileImg)
	for _, p := range posts {
		s.removeFile(ctx, p.FilePath)
	}

	s.logger.Info(ctx, "user deleted", "username", username)
	return nil
}

// removeFile deletes a stored upload by its public path. Failures only leave
// an orphaned file, so they are logged and ignored.
func (s *UserService) removeFile(ctx context.Context, path string) {
	removeStored(ctx, s.files, s.logger, path)
}

func removeStored(ctx context.Context, files storage.Store, logger logging.Logger, path string) {
	key, ok := storage.KeyFromPath(path)
	if !ok {
		return
	}
	if err := files.Delete(ctx, key); err != nil {
		logger.Warn(ctx, "failed to remove stored file", "key", key, "error", err)
	}
}
