package compiler

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/pkg/registry"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompiler() *Compiler {
	return New(registry.Default(logging.NewNop()))
}

func TestLoadDir(t *testing.T) {
	defs, err := newCompiler().LoadDir(filepath.Join("testdata", "processes"))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "order", defs[0].ID())
	assert.Equal(t, "Order fulfilment", defs[0].Name())
	assert.Equal(t, "review", defs[1].ID())
}

func TestCompile_OrderRuns(t *testing.T) {
	def, err := newCompiler().LoadFile(filepath.Join("testdata", "processes", "order.yaml"))
	require.NoError(t, err)

	owner, ok := def.Property("owner")
	require.True(t, ok)
	assert.Equal(t, "sales", owner)

	fulfil := def.FindActivity("fulfil")
	require.NotNil(t, fulfil)
	assert.True(t, fulfil.IsScope())
	assert.Len(t, fulfil.Activities(), 4)

	t.Run("regular path forks inside the sub process", func(t *testing.T) {
		pi, err := runtime.NewProcessInstance(def)
		require.NoError(t, err)
		require.NoError(t, pi.Start())
		channel, _ := pi.Variable("channel")
		assert.Equal(t, "web", channel)

		require.NoError(t, pi.Signal("", nil))
		assert.ElementsMatch(t, []string{"pick", "invoice"}, pi.FindActiveActivityIDs())

		require.NoError(t, pi.FindExecution("pick").Signal("", nil))
		require.NoError(t, pi.FindExecution("invoice").Signal("", nil))
		assert.Equal(t, []string{"ship"}, pi.FindActiveActivityIDs())

		require.NoError(t, pi.Signal("", nil))
		assert.True(t, pi.IsEnded())
		shipped, _ := pi.Variable("shipped")
		assert.Equal(t, true, shipped)
	})

	t.Run("express skips fulfilment", func(t *testing.T) {
		pi, err := runtime.NewProcessInstance(def)
		require.NoError(t, err)
		require.NoError(t, pi.Start())
		require.NoError(t, pi.Signal("", map[string]any{"express": true}))
		assert.Equal(t, []string{"ship"}, pi.FindActiveActivityIDs())
	})
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrInvalidDocument},
		{"missing id", "name: x", ErrInvalidDocument},
		{"unknown key", "id: x\nnodes: []", ErrInvalidDocument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Parse([]byte("id: [unterminated"))
	assert.Error(t, err)
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "unknown behavior",
			src:  "id: p\nactivities:\n  - id: a\n    behavior: teleport\n",
			want: registry.ErrUnknownBehavior,
		},
		{
			name: "unknown listener",
			src:  "id: p\nlisteners:\n  - event: start\n    type: shout\n",
			want: registry.ErrUnknownListener,
		},
		{
			name: "bad listener event",
			src:  "id: p\nlisteners:\n  - event: take\n    type: log\n",
			want: ErrInvalidDocument,
		},
		{
			name: "transition without destination",
			src:  "id: p\nactivities:\n  - id: a\n    transitions:\n      - id: t\n",
			want: ErrInvalidDocument,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newCompiler().Load([]byte(tc.src))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("unresolved destination", func(t *testing.T) {
		_, err := newCompiler().Load([]byte("id: p\nactivities:\n  - id: a\n    transitions:\n      - to: nowhere\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nowhere")
	})
}

func TestCompile_InitialByID(t *testing.T) {
	def, err := newCompiler().Load([]byte("id: p\ninitial: b\nactivities:\n  - id: a\n  - id: b\n"))
	require.NoError(t, err)
	require.NotNil(t, def.Initial())
	assert.Equal(t, "b", def.Initial().ID())
}
