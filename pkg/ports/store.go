package ports

import (
	"context"

	"github.com/aretw0/pvm/pkg/runtime"
)

// InstanceStore persists process instances between calls so a waiting
// instance can be resumed later, possibly by another process.
type InstanceStore interface {
	// Save persists the snapshot under the instance id.
	Save(ctx context.Context, instanceID string, snap *runtime.Snapshot) error

	// Load retrieves the snapshot of an instance.
	// Returns domain.ErrInstanceNotFound if the instance does not exist.
	Load(ctx context.Context, instanceID string) (*runtime.Snapshot, error)

	// Delete removes an instance. Deleting an unknown instance is not an error.
	Delete(ctx context.Context, instanceID string) error

	// List returns the ids of every stored instance.
	List(ctx context.Context) ([]string, error)
}
