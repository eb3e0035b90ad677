package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/storage"
)

type MemoryStorage struct {
	users     map[string]*models.User
	posts     map[string]*models.Post
	resources []models.Resource
	mu        sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return storage.ErrDuplicate
		}
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *MemoryStorage) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *MemoryStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			found := *u
			users = append(users, &found)
		}
	}
	return users, nil
}

func (s *MemoryStorage) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *MemoryStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clonePost(post), nil
}

func (s *MemoryStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	totalCount := len(posts)

	// Применение курсора
	startIdx := 0
	if cursor != nil {
		after, err := storage.DecodeCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		startIdx = len(posts)
		for i, post := range posts {
			if after.Follows(post.CreatedAt, post.ID) {
				startIdx = i
				break
			}
		}
	}

	// Ограничение количества
	endIdx := startIdx + limit
	if endIdx > len(posts) {
		endIdx = len(posts)
	}

	result := make([]*models.Post, 0, endIdx-startIdx)
	for _, post := range posts[startIdx:endIdx] {
		result = append(result, clonePost(post))
	}

	var nextCursor *string
	if endIdx < len(posts) && endIdx > startIdx {
		cursorVal := storage.EncodeCursor(posts[endIdx-1])
		nextCursor = &cursorVal
	}

	return &models.PaginatedPosts{
		Posts:      result,
		TotalCount: totalCount,
		NextCursor: nextCursor,
	}, nil
}

func (s *MemoryStorage) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return storage.ErrNotFound
	}
	post.Comments = append(post.Comments, *comment)
	return nil
}

func (s *MemoryStorage) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStorage) CreateResource(ctx context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources = append(s.resources, *resource)
	return nil
}

func (s *MemoryStorage) ListResources(ctx context.Context) ([]models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Resource(nil), s.resources...), nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

// clonePost copies the comment slice so callers never share backing arrays
// with the stored document.
func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Comments = make([]models.Comment, len(p.Comments))
	copy(c.Comments, p.Comments)
	return &c
}
