package domain_test

import (
	"testing"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_FindActivityPrefersDirectChildren(t *testing.T) {
	def := domain.NewProcessDefinition("p")
	outer, err := def.CreateActivity("outer")
	require.NoError(t, err)
	nested, err := outer.CreateActivity("x")
	require.NoError(t, err)
	top, err := def.CreateActivity("x")
	require.NoError(t, err)

	assert.Same(t, top, def.FindActivity("x"))
	assert.Same(t, nested, outer.FindActivity("x"))
	assert.Nil(t, def.FindActivity("nope"))
}

func TestScope_Contains(t *testing.T) {
	def := domain.NewProcessDefinition("p")
	a, _ := def.CreateActivity("a")
	b, _ := a.CreateActivity("b")
	c, _ := b.CreateActivity("c")
	other, _ := def.CreateActivity("other")

	assert.True(t, def.Contains(c))
	assert.True(t, a.Contains(c))
	assert.True(t, b.Contains(c))
	assert.False(t, c.Contains(c))
	assert.False(t, other.Contains(c))
	assert.False(t, b.Contains(a))
}

func TestScope_CreateActivityValidatesIDs(t *testing.T) {
	def := domain.NewProcessDefinition("p")
	_, err := def.CreateActivity("")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = def.CreateActivity("a")
	require.NoError(t, err)
	_, err = def.CreateActivity("a")
	assert.ErrorIs(t, err, domain.ErrDuplicateActivity)
}

func TestActivity_Structure(t *testing.T) {
	def := domain.NewProcessDefinition("p")
	a, _ := def.CreateActivity("a")
	b, _ := a.CreateActivity("b")
	c, _ := def.CreateActivity("c")

	t1 := b.CreateOutgoingTransition("t1")
	assert.Nil(t, t1.Destination())
	t1.SetDestination(c)

	assert.Same(t, def, b.ProcessDefinition())
	assert.Same(t, a, b.ParentActivity())
	assert.Nil(t, a.ParentActivity())
	assert.Same(t, &def.Scope, a.Parent())
	assert.Equal(t, []string{"a", "b"}, b.Path())
	assert.Equal(t, 1, b.Depth())
	assert.Same(t, b, def.ActivityByPath(b.Path()))
	assert.Nil(t, def.ActivityByPath([]string{"a", "zzz"}))
	assert.Same(t, t1, b.FindOutgoingTransition("t1"))
	assert.Equal(t, []*domain.Transition{t1}, c.Incoming())
	assert.Equal(t, "Transition(t1:b->c)", t1.String())

	var visited []string
	def.Walk(func(x *domain.Activity) { visited = append(visited, x.ID()) })
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}
