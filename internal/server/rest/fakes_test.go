package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/auth"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/services"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const testSecret = "rest-test-secret-0123456789abcdef"

// fakeUsers doubles as the principal finder for the authenticator.
type fakeUsers struct {
	known map[string]*models.User

	signupErr error
	loginErr  error
	deleteErr error
	pwErr     error

	lastUpload  *storage.Upload
	lastUpBody  string
	lastRemove  bool
	lastPwReq   services.PasswordUpdateRequest
	deletedWith string
}

func newFakeUsers(names ...string) *fakeUsers {
	f := &fakeUsers{known: map[string]*models.User{}}
	for i, n := range names {
		f.known[n] = &models.User{ID: int64(i + 1), Username: n, Email: n + "@example.com"}
	}
	return f
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*auth.Principal, error) {
	if _, ok := f.known[username]; !ok {
		return nil, common.ErrorNotFound
	}
	return auth.NewPrincipal(username, ""), nil
}

func (f *fakeUsers) Signup(ctx context.Context, req services.SignupRequest) (*models.User, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	if req.Password != req.PasswordCheck {
		return nil, common.ErrorPasswordMismatch
	}
	return &models.User{Username: req.Username}, nil
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.LoginResult{Token: "tok", Username: username}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, username string) (*models.User, error) {
	u, ok := f.known[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfileImage(ctx context.Context, username string, upload *storage.Upload, remove bool) (string, error) {
	f.lastUpload, f.lastRemove = upload, remove
	if upload != nil {
		b, err := io.ReadAll(upload.Body)
		if err != nil {
			return "", err
		}
		f.lastUpBody = string(b)
		return storage.PublicPath("k_" + upload.Name), nil
	}
	return "", nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, username string, req services.PasswordUpdateRequest) error {
	f.lastPwReq = req
	return f.pwErr
}

func (f *fakeUsers) Delete(ctx context.Context, username, password string) error {
	f.deletedWith = password
	return f.deleteErr
}

type fakePosts struct {
	post *models.Post

	lastPage  int
	lastKw    string
	lastInput services.PostInput
	lastBody  string
	err       error
}

func (f *fakePosts) List(ctx context.Context, page int, kw string) (*models.Page[*models.Post], error) {
	f.lastPage, f.lastKw = page, kw
	return models.NewPage([]*models.Post{f.post}, page, services.PageSize, 1), f.err
}

func (f *fakePosts) Get(ctx context.Context, id int64) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != f.post.ID {
		return nil, common.ErrorNotFound
	}
	return f.post, nil
}

func (f *fakePosts) Create(ctx context.Context, username string, in services.PostInput) (*models.Post, error) {
	f.lastInput = in
	if in.File != nil {
		b, _ := io.ReadAll(in.File.Body)
		f.lastBody = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	p := *f.post
	p.Title, p.Content = in.Title, in.Content
	p.Author.Username = username
	return &p, nil
}

func (f *fakePosts) Modify(ctx context.Context, username string, id int64, in services.PostInput) (*models.Post, error) {
	f.lastInput = in
	if !f.post.IsOwnedBy(username) {
		return nil, common.ErrorForbidden
	}
	p := *f.post
	p.Title = in.Title
	return &p, nil
}

func (f *fakePosts) Delete(ctx context.Context, username string, id int64) error {
	if id != f.post.ID {
		return common.ErrorNotFound
	}
	if !f.post.IsOwnedBy(username) {
		return common.ErrorForbidden
	}
	return nil
}

func (f *fakePosts) Vote(ctx context.Context, username string, id int64) (bool, error) {
	return true, f.err
}

func (f *fakePosts) MyPosts(ctx context.Context, username string) ([]*models.Post, error) {
	return []*models.Post{f.post}, nil
}

func (f *fakePosts) LikedPosts(ctx context.Context, username string) ([]*models.Post, error) {
	return []*models.Post{}, nil
}

type fakeReplies struct {
	reply       *models.Reply
	lastContent string
}

func (f *fakeReplies) Write(ctx context.Context, username string, postID int64, content string) (*models.Reply, error) {
	f.lastContent = content
	if postID != f.reply.PostID {
		return nil, common.ErrorNotFound
	}
	r := *f.reply
	r.Content = content
	return &r, nil
}

func (f *fakeReplies) ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error) {
	return []*models.Reply{f.reply}, nil
}

func (f *fakeReplies) Edit(ctx context.Context, username string, id int64, content string) (*models.Reply, error) {
	if !f.reply.IsOwnedBy(username) {
		return nil, common.ErrorForbidden
	}
	r := *f.reply
	r.Content = content
	return &r, nil
}

func (f *fakeReplies) Delete(ctx context.Context, username string, id int64) error {
	if !f.reply.IsOwnedBy(username) {
		return common.ErrorForbidden
	}
	return nil
}

func (f *fakeReplies) Vote(ctx context.Context, username string, id int64) (bool, error) {
	return false, nil
}

func (f *fakeReplies) MyReplies(ctx context.Context, username string) ([]*models.Reply, error) {
	return []*models.Reply{f.reply}, nil
}

type testEnv struct {
	handler http.Handler
	tokens  *auth.TokenIssuer
	users   *fakeUsers
	posts   *fakePosts
	replies *fakeReplies
	files   *storage.DiskStore
	metrics *Metrics
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenIssuer([]byte(testSecret), time.Hour)
	require.NoError(t, err)

	files, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	users := newFakeUsers("alice", "bob")
	posts := &fakePosts{post: &models.Post{ID: 7, Title: "hello", Content: "world", Author: models.Author{ID: 1, Username: "alice"}}}
	replies := &fakeReplies{reply: &models.Reply{ID: 3, PostID: 7, Content: "hi", Author: models.Author{ID: 2, Username: "bob"}}}

	d := Deps{
		Users:          users,
		Posts:          posts,
		Replies:        replies,
		Files:          files,
		Authenticate:   auth.NewAuthenticator(tokens, users, logging.Nop{}).Middleware,
		Logger:         logging.Nop{},
		Metrics:        NewMetrics(),
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	for _, m := range mutate {
		m(&d)
	}

	return &testEnv{
		handler: NewRouter(d),
		tokens:  tokens,
		users:   users,
		posts:   posts,
		replies: replies,
		files:   files,
		metrics: d.Metrics,
	}
}

// do sends a request as user ("" for anonymous).
func (e *testEnv) do(t *testing.T, method, target, user string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		tok, err := e.tokens.Issue(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return e.do(t, method, target, user, r, "application/json")
}
