package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/otp"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("пропуск интеграционного теста в режиме -short")
	}

	// Запуск тестового контейнера PostgreSQL
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:13",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "user",
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "mindspace",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Не удалось запустить контейнер PostgreSQL: %v", err)
	}
	defer postgresC.Terminate(ctx)

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)
	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := "postgres://user:password@" + host + ":" + port.Port() + "/mindspace?sslmode=disable"

	store, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Не удалось инициализировать PostgresStorage: %v", err)
	}
	defer store.Close()

	newPost := func(createdAt time.Time) *models.Post {
		image := "/uploads/" + uuid.New().String() + ".png"
		return &models.Post{
			ID:                uuid.New().String(),
			Title:             "Тестовый пост",
			Content:           "feeling great",
			Image:             &image,
			AuthorID:          "user1",
			Sentiment:         3,
			SentimentCategory: models.EmotionCalm,
			Response:          "Nice!",
			Comments:          []models.Comment{},
			CreatedAt:         createdAt.UTC().Truncate(time.Microsecond),
		}
	}

	t.Run("CreatePost and GetPost", func(t *testing.T) {
		post := newPost(time.Now())
		require.NoError(t, store.CreatePost(ctx, post), "Ошибка при создании поста")

		retrieved, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err, "Ошибка при получении поста")
		assert.Equal(t, post.ID, retrieved.ID)
		assert.Equal(t, post.Title, retrieved.Title)
		assert.Equal(t, *post.Image, *retrieved.Image)
		assert.Nil(t, retrieved.Video)
		assert.Equal(t, models.EmotionCalm, retrieved.SentimentCategory)
		assert.Equal(t, post.Response, retrieved.Response)
		assert.True(t, post.CreatedAt.Equal(retrieved.CreatedAt))
	})

	t.Run("GetPost Not Found", func(t *testing.T) {
		_, err := store.GetPost(ctx, "non-existent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Image and video are exclusive", func(t *testing.T) {
		post := newPost(time.Now())
		video := "/uploads/x.mp4"
		post.Video = &video
		assert.Error(t, store.CreatePost(ctx, post))
	})

	t.Run("AddComment", func(t *testing.T) {
		post := newPost(time.Now())
		require.NoError(t, store.CreatePost(ctx, post))

		for _, text := range []string{"первый", "второй"} {
			c := &models.Comment{ID: uuid.New().String(), Content: text, AuthorID: "user2", CreatedAt: time.Now()}
			require.NoError(t, store.AddComment(ctx, post.ID, c))
		}

		retrieved, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, retrieved.Comments, 2)
		assert.Equal(t, "первый", retrieved.Comments[0].Content)
		assert.Equal(t, "второй", retrieved.Comments[1].Content)

		c := &models.Comment{ID: uuid.New().String(), Content: "x", AuthorID: "user2", CreatedAt: time.Now()}
		assert.ErrorIs(t, store.AddComment(ctx, "missing", c), storage.ErrNotFound)
	})

	t.Run("ListPosts", func(t *testing.T) {
		base := time.Now().Add(24 * time.Hour)
		older := newPost(base)
		newer := newPost(base.Add(time.Hour))
		require.NoError(t, store.CreatePost(ctx, older))
		require.NoError(t, store.CreatePost(ctx, newer))

		page, err := store.ListPosts(ctx, 1, nil)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, newer.ID, page.Posts[0].ID)
		require.NotNil(t, page.NextCursor)

		page, err = store.ListPosts(ctx, 1, page.NextCursor)
		require.NoError(t, err)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, older.ID, page.Posts[0].ID)
	})

	t.Run("ListPosts same timestamp", func(t *testing.T) {
		createdAt := time.Now().Add(48 * time.Hour).Truncate(time.Second)
		want := map[string]bool{}
		for i := 0; i < 3; i++ {
			p := newPost(createdAt)
			want[p.ID] = true
			require.NoError(t, store.CreatePost(ctx, p))
		}

		seen := map[string]bool{}
		var cursor *string
		for i := 0; i < 3; i++ {
			page, err := store.ListPosts(ctx, 1, cursor)
			require.NoError(t, err)
			require.Len(t, page.Posts, 1)
			assert.False(t, seen[page.Posts[0].ID], "post returned twice")
			seen[page.Posts[0].ID] = true
			require.NotNil(t, page.NextCursor)
			cursor = page.NextCursor
		}
		assert.Equal(t, want, seen)
	})

	t.Run("DeletePost cascades comments", func(t *testing.T) {
		post := newPost(time.Now())
		require.NoError(t, store.CreatePost(ctx, post))
		c := &models.Comment{ID: uuid.New().String(), Content: "x", AuthorID: "user2", CreatedAt: time.Now()}
		require.NoError(t, store.AddComment(ctx, post.ID, c))

		require.NoError(t, store.DeletePost(ctx, post.ID))
		assert.ErrorIs(t, store.DeletePost(ctx, post.ID), storage.ErrNotFound)
	})

	t.Run("Users", func(t *testing.T) {
		user := &models.User{ID: uuid.New().String(), Username: "ivan", Email: "ivan@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
		require.NoError(t, store.CreateUser(ctx, user))

		got, err := store.GetUserByEmail(ctx, "ivan@example.com")
		require.NoError(t, err)
		assert.Equal(t, "ivan", got.Username)

		got, err = store.GetUserByUsername(ctx, "ivan")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		dup := &models.User{ID: uuid.New().String(), Username: "ivan", Email: "other@example.com", PasswordHash: "h", CreatedAt: time.Now()}
		assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrDuplicate)

		users, err := store.GetUsersByIDs(ctx, []string{user.ID})
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Resources", func(t *testing.T) {
		res := &models.Resource{ID: uuid.New().String(), Title: "Helpline", Link: "https://example.org", Category: "support"}
		require.NoError(t, store.CreateResource(ctx, res))
		list, err := store.ListResources(ctx)
		require.NoError(t, err)
		assert.Contains(t, list, *res)
	})

	t.Run("OTPStore", func(t *testing.T) {
		otps := store.OTPStore()
		expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Microsecond)

		require.NoError(t, otps.Put(ctx, "otp@example.com", otp.Entry{Code: "123456", ExpiresAt: expires}))
		require.NoError(t, otps.Put(ctx, "otp@example.com", otp.Entry{Code: "654321", ExpiresAt: expires}))

		got, err := otps.Get(ctx, "otp@example.com")
		require.NoError(t, err)
		assert.Equal(t, "654321", got.Code)
		assert.True(t, expires.Equal(got.ExpiresAt))

		require.NoError(t, otps.Delete(ctx, "otp@example.com"))
		_, err = otps.Get(ctx, "otp@example.com")
		assert.ErrorIs(t, err, otp.ErrNotFound)
	})
}
