package mongodb

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

func TestMongoStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("пропуск интеграционного теста в режиме -short")
	}

	ctx := context.Background()
	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Не удалось запустить контейнер MongoDB: %v", err)
	}
	defer mongoC.Terminate(ctx)

	host, err := mongoC.Host(ctx)
	require.NoError(t, err)
	port, err := mongoC.MappedPort(ctx, "27017")
	require.NoError(t, err)

	store, err := New(ctx, "mongodb://"+host+":"+port.Port(), "mindspace_test")
	require.NoError(t, err)
	defer store.Close()

	newPost := func(createdAt time.Time) *models.Post {
		video := "/uploads/" + uuid.New().String() + ".mp4"
		return &models.Post{
			ID:                uuid.New().String(),
			Title:             "Тестовый пост",
			Content:           "ugh so tired",
			Video:             &video,
			AuthorID:          "user1",
			Sentiment:         -4,
			SentimentCategory: models.EmotionSad,
			Response:          "Tough days happen.",
			Comments:          []models.Comment{},
			CreatedAt:         createdAt.UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("CreatePost and GetPost", func(t *testing.T) {
		post := newPost(time.Now())
		require.NoError(t, store.CreatePost(ctx, post))

		got, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
		assert.Nil(t, got.Image)
		require.NotNil(t, got.Video)
		assert.Equal(t, *post.Video, *got.Video)
		assert.Equal(t, models.EmotionSad, got.SentimentCategory)
		assert.Empty(t, got.Comments)
		assert.True(t, post.CreatedAt.Equal(got.CreatedAt))

		_, err = store.GetPost(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("AddComment and DeletePost", func(t *testing.T) {
		post := newPost(time.Now())
		require.NoError(t, store.CreatePost(ctx, post))

		c := &models.Comment{ID: uuid.New().String(), Content: "держись", AuthorID: "user2", CreatedAt: time.Now()}
		require.NoError(t, store.AddComment(ctx, post.ID, c))
		got, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "держись", got.Comments[0].Content)

		assert.ErrorIs(t, store.AddComment(ctx, "missing", c), storage.ErrNotFound)

		require.NoError(t, store.DeletePost(ctx, post.ID))
		assert.ErrorIs(t, store.DeletePost(ctx, post.ID), storage.ErrNotFound)
	})

	t.Run("ListPosts", func(t *testing.T) {
		base := time.Now().Add(24 * time.Hour)
		older := newPost(base)
		newer := newPost(base.Add(time.Minute))
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

	t.Run("Users", func(t *testing.T) {
		user := &models.User{ID: uuid.New().String(), Username: "olga", Email: "olga@example.com", PasswordHash: "hash", CreatedAt: time.Now()}
		require.NoError(t, store.CreateUser(ctx, user))

		got, err := store.GetUserByEmail(ctx, "olga@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		dup := &models.User{ID: uuid.New().String(), Username: "olga2", Email: "olga@example.com"}
		assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrDuplicate)

		users, err := store.GetUsersByIDs(ctx, []string{user.ID, "missing"})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "olga", users[0].Username)
	})

	t.Run("Resources", func(t *testing.T) {
		res := &models.Resource{ID: uuid.New().String(), Title: "Sleep hygiene", Link: "https://example.org/sleep", Category: "rest"}
		require.NoError(t, store.CreateResource(ctx, res))
		list, err := store.ListResources(ctx)
		require.NoError(t, err)
		assert.Contains(t, list, *res)
	})

	t.Run("OTPStore", func(t *testing.T) {
		otps := store.OTPStore()
		expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)

		require.NoError(t, otps.Put(ctx, "otp@example.com", otp.Entry{Code: "111111", ExpiresAt: expires}))
		require.NoError(t, otps.Put(ctx, "otp@example.com", otp.Entry{Code: "222222", ExpiresAt: expires}))

		got, err := otps.Get(ctx, "otp@example.com")
		require.NoError(t, err)
		assert.Equal(t, "222222", got.Code)
		assert.True(t, expires.Equal(got.ExpiresAt))

		require.NoError(t, otps.Delete(ctx, "otp@example.com"))
		_, err = otps.Get(ctx, "otp@example.com")
		assert.ErrorIs(t, err, otp.ErrNotFound)
	})
}
