package cmd

import (
	"net/http"

	"talkpoint-backend/internal/handlers"
	"talkpoint-backend/internal/middleware"
	"talkpoint-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services groups the services the HTTP routes delegate to
type Services struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Comments *services.CommentService
	Likes    *services.LikeService
	Follows  *services.FollowService
}

// NewRouter builds the REST surface
func NewRouter(s Services, logger zerolog.Logger, corsOrigin string) http.Handler {
	authHandler := handlers.NewAuthHandler(s.Auth)
	userHandler := handlers.NewUserHandler(s.Auth, s.Follows)
	postHandler := handlers.NewPostHandler(s.Posts)
	commentHandler := handlers.NewCommentHandler(s.Comments, s.Likes)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(corsOrigin))

	r.Get("/", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/verify", authHandler.Verify)
		r.Post("/auth/signin", authHandler.Signin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(s.Auth))
			r.Get("/me", userHandler.Me)
			r.Post("/users/{username}/follow", userHandler.Follow)
			r.Post("/users/{username}/unfollow", userHandler.Unfollow)

			r.Post("/posts", postHandler.CreatePost)
			r.Get("/posts", postHandler.ListPosts)
			r.Get("/posts/{id}/comments", commentHandler.ListComments)
			r.Post("/posts/{id}/comments", commentHandler.AddComment)
			r.Post("/posts/{id}/like", commentHandler.Like)
			r.Post("/posts/{id}/unlike", commentHandler.Unlike)
		})
	})

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
