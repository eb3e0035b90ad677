package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ButyrinIA/mindspace/internal/auth"
	"github.com/ButyrinIA/mindspace/internal/config"
	"github.com/ButyrinIA/mindspace/internal/posts"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/rs/cors"
)

type Server struct {
	cfg     *config.Config
	storage storage.Storage
	posts   *posts.Service
	auth    *auth.Service
	hub     *Hub
	handler http.Handler
}

func New(cfg *config.Config, store storage.Storage, postService *posts.Service, authService *auth.Service, hub *Hub) *Server {
	s := &Server{
		cfg:     cfg,
		storage: store,
		posts:   postService,
		auth:    authService,
		hub:     hub,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/verify-otp", s.handleVerifyOTP)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.Handle("POST /api/posts", s.requireAuth(http.HandlerFunc(s.handleCreatePost)))
	mux.Handle("POST /api/posts/{id}/comments", s.requireAuth(http.HandlerFunc(s.handleAddComment)))
	mux.Handle("DELETE /api/posts/{id}", s.requireAuth(http.HandlerFunc(s.handleDeletePost)))

	mux.HandleFunc("GET /api/resources", s.handleListResources)
	mux.Handle("GET /api/stream", s.hub)

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(s.cfg.Server.UploadsDir)))))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "x-auth-token"},
	})
	return c.Handler(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Сервер слушает порт %s", s.cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
