package behavior_test

import (
	"testing"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/aretw0/pvm/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, def *domain.ProcessDefinition) *runtime.Execution {
	t.Helper()
	pi, err := runtime.NewProcessInstance(def)
	require.NoError(t, err)
	require.NoError(t, pi.Start())
	return pi
}

func TestWaitState_SignalSelectsTransition(t *testing.T) {
	def := dsl.New("review").
		CreateActivity("review").Initial().Behavior(behavior.WaitState{}).
		Transition("approved", "approve").
		Transition("rejected", "reject").
		EndActivity().
		CreateActivity("approved").Behavior(behavior.WaitState{}).EndActivity().
		CreateActivity("rejected").Behavior(behavior.WaitState{}).EndActivity().
		MustBuild()

	t.Run("by name", func(t *testing.T) {
		pi := run(t, def)
		require.NoError(t, pi.Signal("reject", map[string]any{"reason": "typo"}))
		assert.Equal(t, "rejected", pi.Activity().ID())
		v, ok := pi.Variable("reason")
		require.True(t, ok)
		assert.Equal(t, "typo", v)
	})

	t.Run("unknown name falls back to first", func(t *testing.T) {
		pi := run(t, def)
		require.NoError(t, pi.Signal("whatever", nil))
		assert.Equal(t, "approved", pi.Activity().ID())
	})

	t.Run("no outgoing ends", func(t *testing.T) {
		pi := run(t, def)
		require.NoError(t, pi.Signal("approve", nil))
		require.NoError(t, pi.Signal("", nil))
		assert.True(t, pi.IsEnded())
	})
}

func TestExclusiveGateway(t *testing.T) {
	build := func() *domain.ProcessDefinition {
		return dsl.New("decide").
			CreateActivity("start").Initial().Behavior(behavior.WaitState{}).Transition("gw").EndActivity().
			CreateActivity("gw").Behavior(behavior.ExclusiveGateway{}).
			StartTransition("big").Property(behavior.ConditionProperty, "large").EndTransition().
			StartTransition("fast").Property(behavior.ConditionProperty, "urgent").EndTransition().
			Transition("normal").
			EndActivity().
			CreateActivity("big").Behavior(behavior.WaitState{}).EndActivity().
			CreateActivity("fast").Behavior(behavior.WaitState{}).EndActivity().
			CreateActivity("normal").Behavior(behavior.WaitState{}).EndActivity().
			MustBuild()
	}

	cases := []struct {
		name string
		vars map[string]any
		want string
	}{
		{"default branch", nil, "normal"},
		{"first truthy condition", map[string]any{"large": true, "urgent": true}, "big"},
		{"string flag", map[string]any{"large": "false", "urgent": "yes"}, "fast"},
		{"zero is false", map[string]any{"large": 0}, "normal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pi := run(t, build())
			require.NoError(t, pi.Signal("", tc.vars))
			assert.Equal(t, tc.want, pi.Activity().ID())
		})
	}

	t.Run("no eligible transition", func(t *testing.T) {
		def := dsl.New("strict").
			CreateActivity("gw").Initial().Behavior(behavior.ExclusiveGateway{}).
			StartTransition("x").Property(behavior.ConditionProperty, "never").EndTransition().
			EndActivity().
			CreateActivity("x").EndActivity().
			MustBuild()
		pi, err := runtime.NewProcessInstance(def)
		require.NoError(t, err)
		assert.ErrorIs(t, pi.Start(), behavior.ErrNoEligibleTransition)
	})
}

func TestParallelGateway_NestedInScope(t *testing.T) {
	b := dsl.New("p")
	b.CreateActivity("start").Initial().Behavior(behavior.Automatic{}).Transition("scope").EndActivity()
	b.CreateActivity("scope").Scope().Behavior(behavior.EmbeddedSubProcess{}).Property(behavior.InitialProperty, "fork").Transition("after")
	b.CreateActivity("fork").Behavior(behavior.ParallelGateway{}).Transition("a").Transition("b").EndActivity()
	b.CreateActivity("a").Behavior(behavior.WaitState{}).Transition("join").EndActivity()
	b.CreateActivity("b").Behavior(behavior.WaitState{}).Transition("join").EndActivity()
	b.CreateActivity("join").Behavior(behavior.ParallelGateway{}).EndActivity()
	b.EndActivity()
	b.CreateActivity("after").Behavior(behavior.WaitState{}).EndActivity()
	def := b.MustBuild()

	pi := run(t, def)
	assert.ElementsMatch(t, []string{"a", "b"}, pi.FindActiveActivityIDs())

	require.NoError(t, pi.FindExecution("a").Signal("", nil))
	require.NoError(t, pi.FindExecution("b").Signal("", nil))

	assert.Equal(t, []string{"after"}, pi.FindActiveActivityIDs())
	assert.Empty(t, pi.ChildExecutions())
}

func TestEmbeddedSubProcess_WithoutNestedActivities(t *testing.T) {
	def := dsl.New("p").
		CreateActivity("sub").Initial().Behavior(behavior.EmbeddedSubProcess{}).EndActivity().
		MustBuild()
	pi, err := runtime.NewProcessInstance(def)
	require.NoError(t, err)
	assert.ErrorIs(t, pi.Start(), domain.ErrNoInitialActivity)
}

func TestEnd_IgnoresOutgoing(t *testing.T) {
	def := dsl.New("p").
		CreateActivity("stop").Initial().Behavior(behavior.End{}).Transition("never").EndActivity().
		CreateActivity("never").Behavior(behavior.WaitState{}).EndActivity().
		MustBuild()
	pi := run(t, def)
	assert.True(t, pi.IsEnded())
}

func TestCallActivity(t *testing.T) {
	quote := dsl.New("quote").
		CreateActivity("price").Initial().Behavior(domain.BehaviorFunc(func(e domain.ActivityExecution) error {
			qty, _ := e.Variable("qty")
			e.SetVariable("total", qty.(int)*10)
			return e.Take(e.Activity().Outgoing()[0])
		})).Transition("review").EndActivity().
		CreateActivity("review").Behavior(behavior.WaitState{}).EndActivity().
		MustBuild()
	order := dsl.New("order").
		CreateActivity("call").Initial().
		Behavior(behavior.CallActivity{Definition: quote, In: []string{"qty"}, Out: []string{"total"}}).
		Transition("ship").EndActivity().
		CreateActivity("ship").Behavior(behavior.WaitState{}).EndActivity().
		MustBuild()

	newOrder := func(t *testing.T) *runtime.Execution {
		t.Helper()
		pi, err := runtime.NewProcessInstance(order)
		require.NoError(t, err)
		pi.SetVariable("qty", 3)
		require.NoError(t, pi.Start())
		return pi
	}

	t.Run("waits for the sub instance", func(t *testing.T) {
		pi := newOrder(t)
		assert.Equal(t, []string{"call"}, pi.FindActiveActivityIDs())
		sub := pi.SubProcessInstance()
		require.NotNil(t, sub)
		assert.Same(t, pi, sub.SuperExecution())
		assert.Equal(t, []string{"review"}, sub.FindActiveActivityIDs())
		qty, ok := sub.Variable("qty")
		require.True(t, ok)
		assert.Equal(t, 3, qty)

		require.NoError(t, pi.FindExecution("review").Signal("", nil))
		assert.True(t, sub.IsEnded())
		assert.Nil(t, pi.SubProcessInstance())
		assert.Equal(t, []string{"ship"}, pi.FindActiveActivityIDs())
		total, ok := pi.Variable("total")
		require.True(t, ok)
		assert.Equal(t, 30, total)
	})

	t.Run("survives a snapshot", func(t *testing.T) {
		pi := newOrder(t)
		snap, err := pi.Snapshot()
		require.NoError(t, err)
		require.NotNil(t, snap.SubProcessInstance)
		assert.Equal(t, "quote", snap.SubProcessInstance.DefinitionID)

		defs := map[string]*domain.ProcessDefinition{"quote": quote}
		restored, err := runtime.Restore(order, snap, runtime.WithDefinitionResolver(func(id string) (*domain.ProcessDefinition, error) {
			if d, ok := defs[id]; ok {
				return d, nil
			}
			return nil, domain.ErrDefinitionNotFound
		}))
		require.NoError(t, err)
		sub := restored.SubProcessInstance()
		require.NotNil(t, sub)
		assert.Equal(t, "quote", sub.ProcessDefinition().ID())

		require.NoError(t, restored.FindExecution("review").Signal("", nil))
		assert.Equal(t, []string{"ship"}, restored.FindActiveActivityIDs())

		_, err = runtime.Restore(order, snap)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("cancel deletes the sub instance", func(t *testing.T) {
		pi := newOrder(t)
		sub := pi.SubProcessInstance()
		require.NoError(t, pi.DeleteCascade("stop"))
		assert.True(t, pi.IsEnded())
		assert.True(t, sub.IsEnded())
		assert.Equal(t, "stop", sub.DeleteReason())
	})

	t.Run("only one sub instance at a time", func(t *testing.T) {
		pi := newOrder(t)
		_, err := pi.CreateSubProcessInstance(quote)
		assert.ErrorIs(t, err, domain.ErrSubProcessRunning)
	})
}
