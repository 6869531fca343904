package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/oakboard/internal/common"
	"github.com/dmitrijs2005/oakboard/internal/dbx"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/posts"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/replies"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/oakboard/internal/server/repositories/votes"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	"github.com/stretchr/testify/require"
)

// --- in-memory board shared by the fake repositories ---

type board struct {
	mu      sync.Mutex
	nextID  int64
	clock   time.Time
	users   map[int64]*models.User
	posts   map[int64]*models.Post
	replies map[int64]*models.Reply
	pvotes  map[[2]int64]bool
	rvotes  map[[2]int64]bool

	failUsers error
}

func newBoard() *board {
	return &board{
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users:   map[int64]*models.User{},
		posts:   map[int64]*models.Post{},
		replies: map[int64]*models.Reply{},
		pvotes:  map[[2]int64]bool{},
		rvotes:  map[[2]int64]bool{},
	}
}

func (b *board) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *board) tick() time.Time {
	b.clock = b.clock.Add(time.Minute)
	return b.clock
}

func (b *board) author(id int64) models.Author {
	u := b.users[id]
	if u == nil {
		return models.Author{ID: id}
	}
	return models.Author{ID: u.ID, Username: u.Username, ProfileImg: u.ProfileImg}
}

func (b *board) postView(p *models.Post) *models.Post {
	cp := *p
	cp.Author = b.author(p.Author.ID)
	cp.VoteCount = 0
	for k := range b.pvotes {
		if k[0] == p.ID {
			cp.VoteCount++
		}
	}
	return &cp
}

func (b *board) replyView(r *models.Reply) *models.Reply {
	cp := *r
	cp.Author = b.author(r.Author.ID)
	cp.VoteCount = 0
	for k := range b.rvotes {
		if k[0] == r.ID {
			cp.VoteCount++
		}
	}
	return &cp
}

// --- users ---

type fakeUsers struct{ b *board }

func (f fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	for _, x := range f.b.users {
		if x.Username == u.Username || x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = f.b.id()
	cp.CreatedAt = f.b.tick()
	f.b.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if f.b.failUsers != nil {
		return nil, f.b.failUsers
	}
	for _, x := range f.b.users {
		if x.Username == username {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeUsers) UpdateProfileImg(ctx context.Context, userID int64, path string) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	u, ok := f.b.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.ProfileImg = path
	return nil
}

func (f fakeUsers) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	u, ok := f.b.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

// Delete cascades like the schema does.
func (f fakeUsers) Delete(ctx context.Context, userID int64) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.users[userID]; !ok {
		return common.ErrorNotFound
	}
	delete(f.b.users, userID)
	for id, p := range f.b.posts {
		if p.Author.ID == userID {
			delete(f.b.posts, id)
		}
	}
	for id, r := range f.b.replies {
		if r.Author.ID == userID || f.b.posts[r.PostID] == nil {
			delete(f.b.replies, id)
		}
	}
	return nil
}

// --- posts ---

type fakePosts struct{ b *board }

func (f fakePosts) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	cp := *p
	cp.ID = f.b.id()
	cp.CreatedAt = f.b.tick()
	f.b.posts[cp.ID] = &cp
	return f.b.postView(&cp), nil
}

func (f fakePosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	p, ok := f.b.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.b.postView(p), nil
}

func (f fakePosts) sorted(keep func(*models.Post) bool) []*models.Post {
	out := []*models.Post{}
	for _, p := range f.b.posts {
		if keep(p) {
			out = append(out, f.b.postView(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f fakePosts) Search(ctx context.Context, kw string, limit, offset int) ([]*models.Post, int64, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("db error: negative LIMIT/OFFSET %d/%d", limit, offset)
	}
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	kw = strings.ToLower(strings.TrimSpace(kw))
	all := f.sorted(func(p *models.Post) bool {
		if kw == "" {
			return true
		}
		author := strings.ToLower(f.b.author(p.Author.ID).Username)
		return strings.Contains(strings.ToLower(p.Title), kw) ||
			strings.Contains(strings.ToLower(p.Content), kw) ||
			strings.Contains(author, kw)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.Post{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (f fakePosts) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.sorted(func(p *models.Post) bool { return p.Author.ID == authorID }), nil
}

func (f fakePosts) ListVotedBy(ctx context.Context, userID int64) ([]*models.Post, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.sorted(func(p *models.Post) bool { return f.b.pvotes[[2]int64{p.ID, userID}] }), nil
}

func (f fakePosts) Update(ctx context.Context, p *models.Post) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	cur, ok := f.b.posts[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Title, cur.Content, cur.FileName, cur.FilePath = p.Title, p.Content, p.FileName, p.FilePath
	t := f.b.tick()
	cur.ModifiedAt = &t
	return nil
}

func (f fakePosts) IncrementView(ctx context.Context, id int64) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	p, ok := f.b.posts[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.View++
	return nil
}

func (f fakePosts) Delete(ctx context.Context, id int64) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.b.posts, id)
	for rid, r := range f.b.replies {
		if r.PostID == id {
			delete(f.b.replies, rid)
		}
	}
	return nil
}

// --- replies ---

type fakeReplies struct{ b *board }

func (f fakeReplies) Create(ctx context.Context, r *models.Reply) (*models.Reply, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.posts[r.PostID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	cp.ID = f.b.id()
	cp.CreatedAt = f.b.tick()
	f.b.replies[cp.ID] = &cp
	return f.b.replyView(&cp), nil
}

func (f fakeReplies) GetByID(ctx context.Context, id int64) (*models.Reply, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	r, ok := f.b.replies[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.b.replyView(r), nil
}

func (f fakeReplies) list(keep func(*models.Reply) bool) []*models.Reply {
	out := []*models.Reply{}
	for _, r := range f.b.replies {
		if keep(r) {
			out = append(out, f.b.replyView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeReplies) ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.list(func(r *models.Reply) bool { return r.PostID == postID }), nil
}

func (f fakeReplies) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Reply, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.list(func(r *models.Reply) bool { return r.Author.ID == authorID }), nil
}

func (f fakeReplies) UpdateContent(ctx context.Context, id int64, content string) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	r, ok := f.b.replies[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Content = content
	t := f.b.tick()
	r.ModifiedAt = &t
	return nil
}

func (f fakeReplies) Delete(ctx context.Context, id int64) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	if _, ok := f.b.replies[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.b.replies, id)
	return nil
}

// --- votes ---

type fakeVotes struct{ b *board }

func (f fakeVotes) toggle(m map[[2]int64]bool, exists bool, target, user int64) (bool, error) {
	k := [2]int64{target, user}
	if m[k] {
		delete(m, k)
		return false, nil
	}
	if !exists {
		return false, common.ErrorNotFound
	}
	m[k] = true
	return true, nil
}

func (f fakeVotes) TogglePost(ctx context.Context, postID, userID int64) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.toggle(f.b.pvotes, f.b.posts[postID] != nil, postID, userID)
}

func (f fakeVotes) ToggleReply(ctx context.Context, replyID, userID int64) (bool, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	return f.toggle(f.b.rvotes, f.b.replies[replyID] != nil, replyID, userID)
}

func (f fakeVotes) DeleteByUser(ctx context.Context, userID int64) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	for k := range f.b.pvotes {
		if k[1] == userID {
			delete(f.b.pvotes, k)
		}
	}
	for k := range f.b.rvotes {
		if k[1] == userID {
			delete(f.b.rvotes, k)
		}
	}
	return nil
}

// --- repository manager ---

type fakeRepoManager struct{ b *board }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{m.b} }
func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository              { return fakePosts{m.b} }
func (m *fakeRepoManager) Replies(dbx.DBTX) replies.Repository          { return fakeReplies{m.b} }
func (m *fakeRepoManager) Votes(dbx.DBTX) votes.Repository              { return fakeVotes{m.b} }

// --- storage ---

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	saveErr error
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]string{}}
}

func (s *memStore) Save(ctx context.Context, u storage.Upload) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return "", err
	}
	key := storage.NewKey(u.Name)
	s.mu.Lock()
	s.objects[key] = string(b)
	s.mu.Unlock()
	return key, nil
}

func (s *memStore) Open(ctx context.Context, key string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &storage.Object{Body: io.NopCloser(strings.NewReader(body)), Size: int64(len(body))}, nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStore) has(path string) bool {
	key, ok := storage.KeyFromPath(path)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.objects[key]
	return found
}

// --- tokens ---

type fakeTokens struct {
	err error
}

func (f fakeTokens) Issue(username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + username, nil
}

var errBoom = errors.New("boom")

// newSQLMockDB backs dbx.WithTx in tests; the fake repositories never
// send queries through it.
func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
