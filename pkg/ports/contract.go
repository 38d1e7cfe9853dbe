package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunInstanceStoreContract runs a suite of tests to verify that an
// InstanceStore implementation adheres to the interface contract.
func RunInstanceStoreContract(t *testing.T, store InstanceStore) {
	ctx := context.Background()
	instanceID := "contract-test-instance-" + time.Now().Format("20060102150405")

	snapshot := func(id string) *runtime.Snapshot {
		return &runtime.Snapshot{
			ID:           id,
			DefinitionID: "contract",
			Activity:     []string{"scope"},
			Scope:        true,
			Started:      true,
			Variables:    map[string]any{"foo": "bar", "count": 42},
			Executions: []runtime.Snapshot{{
				ID:            id + "-child",
				Activity:      []string{"scope", "task"},
				ScopeActivity: []string{"scope"},
				Active:        true,
				Scope:         true,
				Started:       true,
			}},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, instanceID, snapshot(instanceID))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, instanceID, loaded.ID)
		assert.Equal(t, "contract", loaded.DefinitionID)
		assert.Equal(t, []string{"scope"}, loaded.Activity)
		assert.Equal(t, "bar", loaded.Variables["foo"])
		// JSON backends turn numbers into float64; only presence is part of the contract.
		assert.NotNil(t, loaded.Variables["count"])
		require.Len(t, loaded.Executions, 1)
		assert.Equal(t, []string{"scope", "task"}, loaded.Executions[0].Activity)
		assert.True(t, loaded.Executions[0].Active)
	})

	t.Run("Load is isolated from caller mutations", func(t *testing.T) {
		snap := snapshot(instanceID)
		require.NoError(t, store.Save(ctx, instanceID, snap))
		snap.Variables["foo"] = "mutated"

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		assert.Equal(t, "bar", loaded.Variables["foo"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+instanceID)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, instanceID, snapshot(instanceID)))

		err := store.Delete(ctx, instanceID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, instanceID)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound, "Load after Delete should return ErrInstanceNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := instanceID + "-1"
		id2 := instanceID + "-2"
		require.NoError(t, store.Save(ctx, id1, snapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, snapshot(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
