package posts

import (
	"context"
	"fmt"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/ButyrinIA/mindspace/internal/storage"
	"github.com/google/uuid"
)

// SeedResources stores resources when the store has none yet and returns
// how many were inserted.
func SeedResources(ctx context.Context, store storage.Storage, resources []models.Resource) (int, error) {
	existing, err := store.ListResources(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list resources: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := range resources {
		r := resources[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if err := store.CreateResource(ctx, &r); err != nil {
			return i, fmt.Errorf("failed to create resource %q: %w", r.Title, err)
		}
	}
	return len(resources), nil
}
