package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/pvm/internal/presentation/graph"
	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/dsl"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func orderProcess() *domain.ProcessDefinition {
	b := dsl.New("order")
	b.CreateActivity("receive").Initial().Behavior(behavior.WaitState{}).Transition("check").EndActivity()
	b.CreateActivity("check").Behavior(behavior.ExclusiveGateway{}).
		StartTransition("ship").Property(behavior.ConditionProperty, "express").EndTransition().
		Transition("fulfil").
		EndActivity()
	b.CreateActivity("fulfil").Scope().Behavior(behavior.EmbeddedSubProcess{}).
		Property(behavior.InitialProperty, "split").Transition("ship")
	b.CreateActivity("split").Behavior(behavior.ParallelGateway{}).Transition("pick").Transition("invoice").EndActivity()
	b.CreateActivity("pick").Behavior(behavior.WaitState{}).Transition("join").EndActivity()
	b.CreateActivity("invoice").Behavior(behavior.WaitState{}).Transition("join").EndActivity()
	b.CreateActivity("join").Behavior(behavior.ParallelGateway{}).EndActivity()
	b.EndActivity()
	b.CreateActivity("ship").Behavior(behavior.End{}).EndActivity()
	return b.MustBuild()
}

func TestGenerateMermaid_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	def := orderProcess()
	g.Assert(t, "order", []byte(graph.GenerateMermaid(def, nil)))
	g.Assert(t, "order_active", []byte(graph.GenerateMermaid(def, &graph.Overlay{
		Active: []string{"pick", "invoice"},
	})))
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *domain.ProcessDefinition
		contains []string
	}{
		{
			name: "Automatic and Async",
			build: func() *domain.ProcessDefinition {
				return dsl.New("p").
					CreateActivity("a").Initial().Transition("b").EndActivity().
					CreateActivity("b").Behavior(behavior.Automatic{}).Async().EndActivity().
					MustBuild()
			},
			contains: []string{
				"a((\"a\"))",
				"b(\"b <br/> async\")",
				"a --> b",
			},
		},
		{
			name: "ID Sanitization",
			build: func() *domain.ProcessDefinition {
				return dsl.New("p").
					CreateActivity("hyphen-ated").Initial().Transition("file.md").EndActivity().
					CreateActivity("file.md").EndActivity().
					MustBuild()
			},
			contains: []string{
				"hyphen_ated((\"hyphen-ated\"))",
				"file_md[\"file.md\"]",
			},
		},
		{
			name: "Condition Escaping",
			build: func() *domain.ProcessDefinition {
				return dsl.New("p").
					CreateActivity("a").Initial().Behavior(behavior.ExclusiveGateway{}).
					StartTransition("b").Property(behavior.ConditionProperty, `say "hi"`).EndTransition().
					EndActivity().
					CreateActivity("b").EndActivity().
					MustBuild()
			},
			contains: []string{
				"a -- \"say 'hi'\" --> b",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.build(), nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "Overlay Styles")
		})
	}
}
