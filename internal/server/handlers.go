package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ButyrinIA/mindspace/internal/auth"
	"github.com/ButyrinIA/mindspace/internal/media"
	"github.com/ButyrinIA/mindspace/internal/posts"
	"github.com/ButyrinIA/mindspace/internal/storage"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = media.MaxUploadBytes + 1<<20
	multipartMemory  = 32 << 20
)

type msgResponse struct {
	Msg string `json:"msg"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type commentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgResponse{Msg: "OTP sent to your email. Please verify."})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := s.auth.VerifyOTP(r.Context(), req.Email, req.OTP, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, msgResponse{Msg: "limit must be a number"})
			return
		}
		limit = n
	}
	var cursor *string
	if v := q.Get("cursor"); v != "" {
		cursor = &v
	}

	page, err := s.posts.ListPosts(r.Context(), limit, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	populateAuthors(r.Context(), newAuthorLoader(s.storage), page.Posts)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, media.ErrPayloadTooLarge)
			return
		}
		writeJSON(w, http.StatusBadRequest, msgResponse{Msg: "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	var upload *media.Upload
	file, header, err := r.FormFile("media")
	switch {
	case err == nil:
		defer file.Close()
		upload = &media.Upload{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	case !errors.Is(err, http.ErrMissingFile):
		writeJSON(w, http.StatusBadRequest, msgResponse{Msg: "invalid media file"})
		return
	}

	post, err := s.posts.CreatePost(r.Context(), userIDFrom(r.Context()), r.FormValue("title"), r.FormValue("content"), upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := s.posts.AddComment(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.DeletePost(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgResponse{Msg: "Post deleted"})
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := s.posts.ListResources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, msgResponse{Msg: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status, msg := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, msgResponse{Msg: msg})
}

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, posts.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication failed - no user ID"
	case errors.Is(err, posts.ErrForbidden):
		return http.StatusForbidden, "Not authorized to delete this post"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, media.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, media.ErrPayloadTooLarge.Error()
	case errors.Is(err, posts.ErrInvalidInput),
		errors.Is(err, media.ErrUnsupportedMedia),
		errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	}

	for _, sentinel := range []error{
		auth.ErrEmailTaken,
		auth.ErrUsernameTaken,
		auth.ErrOTPNotFound,
		auth.ErrOTPInvalid,
		auth.ErrInvalidCredentials,
	} {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, sentinel.Error()
		}
	}
	return http.StatusInternalServerError, "Server error"
}
