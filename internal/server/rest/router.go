package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/oakboard/internal/logging"
	"github.com/dmitrijs2005/oakboard/internal/server/models"
	"github.com/dmitrijs2005/oakboard/internal/server/services"
	"github.com/dmitrijs2005/oakboard/internal/server/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// DefaultAuthRateLimit is the per-IP budget for signup and login per minute.
const DefaultAuthRateLimit = 20

type UserService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateProfileImage(ctx context.Context, username string, upload *storage.Upload, remove bool) (string, error)
	UpdatePassword(ctx context.Context, username string, req services.PasswordUpdateRequest) error
	Delete(ctx context.Context, username, password string) error
}

type PostService interface {
	List(ctx context.Context, page int, kw string) (*models.Page[*models.Post], error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, username string, in services.PostInput) (*models.Post, error)
	Modify(ctx context.Context, username string, id int64, in services.PostInput) (*models.Post, error)
	Delete(ctx context.Context, username string, id int64) error
	Vote(ctx context.Context, username string, id int64) (bool, error)
	MyPosts(ctx context.Context, username string) ([]*models.Post, error)
	LikedPosts(ctx context.Context, username string) ([]*models.Post, error)
}

type ReplyService interface {
	Write(ctx context.Context, username string, postID int64, content string) (*models.Reply, error)
	ListByPost(ctx context.Context, postID int64) ([]*models.Reply, error)
	Edit(ctx context.Context, username string, id int64, content string) (*models.Reply, error)
	Delete(ctx context.Context, username string, id int64) error
	Vote(ctx context.Context, username string, id int64) (bool, error)
	MyReplies(ctx context.Context, username string) ([]*models.Reply, error)
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Users   UserService
	Posts   PostService
	Replies ReplyService
	Files   storage.Store

	// Authenticate installs the caller's identity into the request context.
	Authenticate func(http.Handler) http.Handler

	Logger         logging.Logger
	Metrics        *Metrics
	AllowedOrigins []string
	AuthRateLimit  int
	Health         func(ctx context.Context) error
}

type handlers struct {
	users   UserService
	posts   PostService
	replies ReplyService
	files   storage.Store
	health  func(ctx context.Context) error
	logger  logging.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	if d.Authenticate == nil {
		d.Authenticate = func(next http.Handler) http.Handler { return next }
	}
	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit = DefaultAuthRateLimit
	}

	h := &handlers{
		users:   d.Users,
		posts:   d.Posts,
		replies: d.Replies,
		files:   d.Files,
		health:  d.Health,
		logger:  d.Logger.With("module", "rest"),
	}
	requireAuth := RequireAuthenticated(h.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(CORS(d.AllowedOrigins))
	r.Use(RequestLogger(d.Logger))
	r.Use(d.Metrics.Middleware)
	r.Use(d.Authenticate)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	r.Get("/files/*", h.serveFile)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(d.AuthRateLimit, time.Minute))
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.me)
			r.Delete("/me", h.deleteMe)
			r.Get("/me/posts", h.myPosts)
			r.Get("/me/replies", h.myReplies)
			r.Get("/me/likes", h.myLikes)
			r.Put("/profile", h.updateProfile)
			r.Put("/password", h.updatePassword)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Get("/{id}", h.getPost)
			r.Get("/{id}/replies", h.listReplies)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", h.createPost)
				r.Put("/{id}", h.modifyPost)
				r.Delete("/{id}", h.deletePost)
				r.Post("/{id}/like", h.votePost)
				r.Post("/{id}/replies", h.writeReply)
				r.Put("/replies/{replyId}", h.editReply)
				r.Delete("/replies/{replyId}", h.deleteReply)
				r.Post("/replies/{replyId}/vote", h.voteReply)
			})
		})
	})

	return r
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
