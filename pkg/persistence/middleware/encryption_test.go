package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/pvm/pkg/adapters/memory"
	"github.com/aretw0/pvm/pkg/persistence/middleware"
	"github.com/aretw0/pvm/pkg/ports"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next ports.InstanceStore, cfg middleware.EncryptionConfig) ports.InstanceStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunInstanceStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	original := &runtime.Snapshot{
		ID:           "i-1",
		DefinitionID: "payroll",
		Activity:     []string{"approve"},
		Active:       true,
		Scope:        true,
		Variables:    map[string]any{"secret": "my-secret-sauce"},
	}
	require.NoError(t, secure.Save(ctx, "i-1", original))

	stored, err := underlying.Load(ctx, "i-1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Variables, "secret")
	assert.Contains(t, stored.Variables, middleware.EncryptedField)
	assert.Empty(t, stored.Activity)
	assert.Equal(t, "payroll", stored.DefinitionID)

	loaded, err := secure.Load(ctx, "i-1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Variables["secret"])
	assert.Equal(t, []string{"approve"}, loaded.Activity)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	require.NoError(t, encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).
		Save(ctx, "i-1", &runtime.Snapshot{ID: "i-1", Variables: map[string]any{"v": "old"}}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "i-1")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Variables["v"])

	_, err = encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Load(ctx, "i-1")
	assert.ErrorContains(t, err, "decrypt")
}

func TestEncryptionMiddleware_Errors(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)

	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "plain", &runtime.Snapshot{ID: "plain"}))
	require.NoError(t, underlying.Save(ctx, "garbled", &runtime.Snapshot{
		ID: "garbled", Variables: map[string]any{middleware.EncryptedField: "%%%"},
	}))

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err = secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")
	_, err = secure.Load(ctx, "garbled")
	assert.ErrorContains(t, err, "base64")
}
