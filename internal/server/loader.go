package server

import (
	"context"
	"fmt"
	"log"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/graph-gophers/dataloader/v7"
)

// newAuthorLoader batches author lookups of one request into a single
// GetUsersByIDs call.
func newAuthorLoader(store storage.Storage) *dataloader.Loader[string, *models.Author] {
	return dataloader.NewBatchedLoader(
		func(ctx context.Context, keys []string) []*dataloader.Result[*models.Author] {
			results := make([]*dataloader.Result[*models.Author], len(keys))
			users, err := store.GetUsersByIDs(ctx, keys)
			if err != nil {
				for i := range results {
					results[i] = &dataloader.Result[*models.Author]{Error: err}
				}
				return results
			}

			byID := make(map[string]*models.User, len(users))
			for _, u := range users {
				byID[u.ID] = u
			}
			for i, key := range keys {
				u, ok := byID[key]
				if !ok {
					results[i] = &dataloader.Result[*models.Author]{Error: fmt.Errorf("author %s: %w", key, storage.ErrNotFound)}
					continue
				}
				results[i] = &dataloader.Result[*models.Author]{Data: &models.Author{ID: u.ID, Username: u.Username}}
			}
			return results
		},
	)
}

// populateAuthors sets Post.Author for every post. Posts whose author
// cannot be resolved keep a nil Author.
func populateAuthors(ctx context.Context, loader *dataloader.Loader[string, *models.Author], list []*models.Post) {
	thunks := make([]dataloader.Thunk[*models.Author], len(list))
	for i, p := range list {
		thunks[i] = loader.Load(ctx, p.AuthorID)
	}
	for i, thunk := range thunks {
		author, err := thunk()
		if err != nil {
			log.Printf("failed to load author %s: %v", list[i].AuthorID, err)
			continue
		}
		list[i].Author = author
	}
}
