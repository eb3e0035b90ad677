package posts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ButyrinIA/mindspace/internal/media"
	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/sentiment"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/google/uuid"
)

const (
	MaxTitleLength   = 200
	MaxCommentLength = 2000

	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrForbidden       = errors.New("not authorized to modify this post")
	ErrStorage         = errors.New("storage failure")
)

// MediaStore persists upload bytes under the name chosen by media.Classify.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Remove(name string) error
}

type EventType string

const (
	EventPostCreated  EventType = "post.created"
	EventCommentAdded EventType = "comment.added"
	EventPostDeleted  EventType = "post.deleted"
)

// Event describes a change to the journal feed.
type Event struct {
	Type    EventType       `json:"type"`
	PostID  string          `json:"postId"`
	Post    *models.Post    `json:"post,omitempty"`
	Comment *models.Comment `json:"comment,omitempty"`
}

// Notifier receives feed events after they are persisted.
type Notifier interface {
	Publish(Event)
}

type Service struct {
	store    storage.Storage
	media    MediaStore
	analyzer *sentiment.Analyzer
	notifier Notifier
	now      func() time.Time
}

// NewService creates the post service. notifier may be nil.
func NewService(store storage.Storage, mediaStore MediaStore, analyzer *sentiment.Analyzer, notifier Notifier) *Service {
	return &Service{
		store:    store,
		media:    mediaStore,
		analyzer: analyzer,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreatePost classifies the upload, analyzes content, stores the media and
// persists the assembled post. Either the whole post is stored or nothing is.
func (s *Service) CreatePost(ctx context.Context, authorID, title, content string, upload *media.Upload) (*models.Post, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxTitleLength)
	}
	if upload != nil && upload.Body == nil {
		return nil, fmt.Errorf("%w: upload has no body", ErrInvalidInput)
	}

	stored, err := media.Classify(upload)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(content)

	post := &models.Post{
		ID:                uuid.New().String(),
		Title:             title,
		Content:           content,
		AuthorID:          authorID,
		Sentiment:         analysis.Score,
		SentimentCategory: analysis.Category,
		Response:          analysis.Response,
		Comments:          []models.Comment{},
		CreatedAt:         s.now(),
	}

	if !stored.Empty() {
		if err := s.media.Save(ctx, stored.Name, upload.Body); err != nil {
			if errors.Is(err, media.ErrPayloadTooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: failed to save media: %w", ErrStorage, err)
		}
		url := stored.URL()
		if stored.IsVideo {
			post.Video = &url
		} else {
			post.Image = &url
		}
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if !stored.Empty() {
			if rmErr := s.media.Remove(stored.Name); rmErr != nil {
				log.Printf("failed to clean up media %s: %v", stored.Name, rmErr)
			}
		}
		return nil, fmt.Errorf("%w: failed to create post: %w", ErrStorage, err)
	}

	s.publish(Event{Type: EventPostCreated, PostID: post.ID, Post: post})
	return post, nil
}

// ListPosts returns posts newest first.
func (s *Service) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if cursor != nil {
		if _, err := storage.DecodeCursor(*cursor); err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidInput)
		}
	}

	page, err := s.store.ListPosts(ctx, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list posts: %w", ErrStorage, err)
	}
	return page, nil
}

// AddComment appends a comment to a post.
func (s *Service) AddComment(ctx context.Context, authorID, postID, content string) (*models.Comment, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidInput, MaxCommentLength)
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: s.now(),
	}
	if err := s.store.AddComment(ctx, postID, comment); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to add comment: %w", ErrStorage, err)
	}

	s.publish(Event{Type: EventCommentAdded, PostID: postID, Comment: comment})
	return comment, nil
}

// DeletePost removes a post owned by userID along with its media file.
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: failed to get post: %w", ErrStorage, err)
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: failed to delete post: %w", ErrStorage, err)
	}

	if path := post.MediaPath(); path != "" {
		if err := s.media.Remove(path); err != nil {
			log.Printf("failed to remove media of post %s: %v", postID, err)
		}
	}

	s.publish(Event{Type: EventPostDeleted, PostID: postID})
	return nil
}

// ListResources returns the static support resources.
func (s *Service) ListResources(ctx context.Context) ([]models.Resource, error) {
	resources, err := s.store.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list resources: %w", ErrStorage, err)
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	return resources, nil
}

func (s *Service) publish(e Event) {
	if s.notifier != nil {
		s.notifier.Publish(e)
	}
}
