package registry_test

import (
	"testing"

	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/aretw0/pvm/pkg/registry"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/aretw0/pvm/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := registry.NewRegistry()
	r.RegisterBehavior("custom", func(map[string]any) (domain.ActivityBehavior, error) {
		return behavior.WaitState{}, nil
	})

	b, err := r.Behavior("custom", nil)
	require.NoError(t, err)
	assert.IsType(t, behavior.WaitState{}, b)

	_, err = r.Behavior("missing", nil)
	assert.ErrorIs(t, err, registry.ErrUnknownBehavior)
	_, err = r.Listener("missing", nil)
	assert.ErrorIs(t, err, registry.ErrUnknownListener)
}

func TestDefault(t *testing.T) {
	r := registry.Default(logging.NewNop())
	assert.Equal(t, []string{"automatic", "end", "exclusive", "fail", "parallel", "subprocess", "wait"}, r.BehaviorNames())
	assert.Equal(t, []string{"log", "require", "set"}, r.ListenerNames())

	b, err := r.Behavior("fail", map[string]any{"message": "nope"})
	require.NoError(t, err)
	assert.EqualError(t, b.(behavior.Fail).Err, "nope")

	_, err = r.Listener("set", map[string]any{"variables": "oops"})
	assert.Error(t, err)
	l, err := r.Listener("set", map[string]any{"variables": map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestDefault_RequireListener(t *testing.T) {
	r := registry.Default(logging.NewNop())

	_, err := r.Listener("require", map[string]any{"variables": map[string]any{"a": "decimal"}})
	assert.ErrorContains(t, err, "unsupported type")

	guard, err := r.Listener("require", map[string]any{"variables": map[string]any{"amount": "float"}})
	require.NoError(t, err)

	def := dsl.New("pay").
		CreateActivity("submit").Initial().Behavior(behavior.WaitState{}).Transition("pay").EndActivity().
		CreateActivity("pay").Behavior(behavior.WaitState{}).ExecutionListener(domain.EventStart, guard).EndActivity().
		MustBuild()

	pi, err := runtime.NewProcessInstance(def)
	require.NoError(t, err)
	require.NoError(t, pi.Start())

	err = pi.Signal("", map[string]any{"amount": "lots"})
	assert.ErrorIs(t, err, schema.ErrInvalidVariables)
	assert.ErrorContains(t, err, "pay start")

	ok, err := runtime.NewProcessInstance(def)
	require.NoError(t, err)
	require.NoError(t, ok.Start())
	require.NoError(t, ok.Signal("", map[string]any{"amount": 12.5}))
	assert.Equal(t, []string{"pay"}, ok.FindActiveActivityIDs())
}
