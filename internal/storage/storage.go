package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ButyrinIA/mindspace/internal/models"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique user field is already taken.
	ErrDuplicate = errors.New("already exists")
)

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error)
	AddComment(ctx context.Context, postID string, comment *models.Comment) error
	DeletePost(ctx context.Context, id string) error

	CreateResource(ctx context.Context, resource *models.Resource) error
	ListResources(ctx context.Context) ([]models.Resource, error)

	Close() error
}

// Cursor marks the last post of a listing page. Posts are ordered by
// CreatedAt descending, then ID descending.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorFor returns the cursor positioned at post.
func CursorFor(post *models.Post) Cursor {
	return Cursor{CreatedAt: post.CreatedAt, ID: post.ID}
}

// Encode renders the cursor as "<RFC3339Nano>|<id>".
func (c Cursor) Encode() string {
	return c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
}

// Follows reports whether a post created at t with the given id comes after
// the cursor in listing order.
func (c Cursor) Follows(t time.Time, id string) bool {
	if t.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return t.Before(c.CreatedAt)
}

// EncodeCursor renders the listing cursor of post.
func EncodeCursor(post *models.Post) string {
	return CursorFor(post).Encode()
}

// DecodeCursor parses a cursor produced by EncodeCursor. A bare timestamp
// is accepted and selects posts strictly older than it.
func DecodeCursor(cursor string) (Cursor, error) {
	ts, id, _ := strings.Cut(cursor, "|")
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{CreatedAt: t, ID: id}, nil
}
