// Package repository keeps story jobs in a bounded in-memory store.
package repository

import (
	"context"

	"github.com/okian/storyloom/internal/domain/model"
)

// Store provides read/write access to submitted jobs. Returned jobs are
// copies; mutate through Update.
type Store interface {
	// Create adds a new job. Returns ErrExists if the id is taken.
	Create(ctx context.Context, job *model.Job) error

	// Get returns the job or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Update applies fn to the stored job under the store lock and returns
	// the updated copy. An error from fn leaves the job unchanged.
	Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error)

	// List returns up to limit jobs, most recently used first.
	List(ctx context.Context, limit int) ([]*model.Job, error)

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int
}
