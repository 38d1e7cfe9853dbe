package compiler

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("valid process", func(t *testing.T) {
		def, err := newCompiler().LoadFile(filepath.Join("testdata", "processes", "order.yaml"))
		require.NoError(t, err)
		issues := Validate(def)
		assert.Empty(t, issues)
		assert.NoError(t, issues.Err())
	})

	t.Run("unreachable activity is a warning", func(t *testing.T) {
		def, err := newCompiler().LoadFile(filepath.Join("testdata", "processes", "review.yml"))
		require.NoError(t, err)
		issues := Validate(def)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "orphan", issues[0].Activity)
		assert.NoError(t, issues.Err())
	})

	t.Run("missing initial is an error", func(t *testing.T) {
		def := dsl.New("p").CreateActivity("a").EndActivity().MustBuild()
		issues := Validate(def)
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityError, issues[0].Severity)
		assert.ErrorContains(t, issues.Err(), "no initial activity")
	})

	t.Run("bad nested initial", func(t *testing.T) {
		def := dsl.New("p").
			CreateActivity("sub").Initial().Behavior(behavior.EmbeddedSubProcess{}).
			Property(behavior.InitialProperty, "ghost").
			CreateActivity("inner").EndActivity().
			EndActivity().
			MustBuild()
		issues := Validate(def)
		assert.ErrorContains(t, issues.Err(), `"ghost"`)
		var paths []string
		for _, i := range issues {
			paths = append(paths, i.Activity)
		}
		assert.Contains(t, paths, "sub/inner")
	})

	t.Run("branching without behavior is an error", func(t *testing.T) {
		def := dsl.New("p").
			CreateActivity("a").Initial().Transition("b").Transition("c").EndActivity().
			CreateActivity("b").Behavior(behavior.WaitState{}).EndActivity().
			CreateActivity("c").Behavior(behavior.WaitState{}).EndActivity().
			MustBuild()
		issues := Validate(def)
		require.Len(t, issues, 1)
		assert.Equal(t, "a", issues[0].Activity)
		assert.ErrorContains(t, issues.Err(), "2 outgoing transitions")
	})
}
