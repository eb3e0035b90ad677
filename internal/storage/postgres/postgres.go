package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		image TEXT,
		video TEXT,
		author_id TEXT NOT NULL,
		sentiment INTEGER NOT NULL DEFAULT 0,
		sentiment_category TEXT NOT NULL DEFAULT 'neutral'
			CHECK (sentiment_category IN ('happy', 'calm', 'sad', 'anxious', 'angry', 'down', 'neutral')),
		response TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		CHECK (image IS NULL OR video IS NULL)
	);
	CREATE TABLE IF NOT EXISTS comments (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		author_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS otp_codes (
		email TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`

type PostgresStorage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// OTPStore returns an OTP store sharing this storage's connection pool.
func (s *PostgresStorage) OTPStore() *OTPStore {
	return &OTPStore{pool: s.pool}
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	return err
}

func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `WHERE email=$1`, email)
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `WHERE username=$1`, username)
}

func (s *PostgresStorage) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users `+where, arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *PostgresStorage) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, title, content, image, video, author_id, sentiment, sentiment_category, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		post.ID, post.Title, post.Content, post.Image, post.Video, post.AuthorID,
		post.Sentiment, string(post.SentimentCategory), post.Response, post.CreatedAt)
	return err
}

const postColumns = `id, title, content, image, video, author_id, sentiment, sentiment_category, response, created_at`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	var category string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Image, &p.Video, &p.AuthorID,
		&p.Sentiment, &category, &p.Response, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.SentimentCategory = models.Emotion(category)
	p.Comments = []models.Comment{}
	return &p, nil
}

func (s *PostgresStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, []*models.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStorage) ListPosts(ctx context.Context, limit int, cursor *string) (*models.PaginatedPosts, error) {
	var (
		beforeTime *time.Time
		beforeID   *string
	)
	if cursor != nil {
		c, err := storage.DecodeCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		beforeTime, beforeID = &c.CreatedAt, &c.ID
	}

	// Подсчет общего количества
	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&totalCount); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE ($1::TIMESTAMPTZ IS NULL OR (created_at, id) < ($1::TIMESTAMPTZ, $2::TEXT))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, beforeTime, beforeID, limit+1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		if limit > 0 {
			c := storage.EncodeCursor(posts[limit-1])
			nextCursor = &c
		}
	}

	if err := s.attachComments(ctx, posts); err != nil {
		return nil, err
	}

	return &models.PaginatedPosts{
		Posts:      posts,
		TotalCount: totalCount,
		NextCursor: nextCursor,
	}, nil
}

func (s *PostgresStorage) attachComments(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[string]*models.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT post_id, id, author_id, content, created_at
		FROM comments
		WHERE post_id = ANY($1)
		ORDER BY seq`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var c models.Comment
		if err := rows.Scan(&postID, &c.ID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return err
		}
		if p, ok := byID[postID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return rows.Err()
}

func (s *PostgresStorage) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, post_id, author_id, content, created_at)
		SELECT $1, id, $3, $4, $5 FROM posts WHERE id=$2`,
		comment.ID, postID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) CreateResource(ctx context.Context, resource *models.Resource) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO resources (id, title, description, link, category)
		VALUES ($1, $2, $3, $4, $5)`,
		resource.ID, resource.Title, resource.Description, resource.Link, resource.Category)
	return err
}

func (s *PostgresStorage) ListResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, description, link, category FROM resources ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Link, &r.Category); err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
