package infra

import (
	"slices"

	"github.com/aws/constructs-go/constructs/v10"
)

// Edge says Dependent may only be created once Dependency exists.
// Both ends are construct ids.
type Edge struct {
	Dependent  string
	Dependency string
}

// Ordering is the explicit wait-list of the stack. Every edge recorded here
// is also applied to the construct tree so the CloudFormation planner sees it
// as DependsOn.
type Ordering struct {
	edges []Edge
}

// Wait makes dependent wait for each of deps.
func (o *Ordering) Wait(dependent constructs.IConstruct, deps ...constructs.IConstruct) {
	for _, dep := range deps {
		dependent.Node().AddDependency(dep)
		o.edges = append(o.edges, Edge{
			Dependent:  *dependent.Node().Id(),
			Dependency: *dep.Node().Id(),
		})
	}
}

// Edges returns the recorded edges in declaration order.
func (o *Ordering) Edges() []Edge {
	return slices.Clone(o.edges)
}

// DependsOn reports whether an edge dependent -> dependency was declared.
func (o *Ordering) DependsOn(dependent, dependency string) bool {
	return slices.Contains(o.edges, Edge{Dependent: dependent, Dependency: dependency})
}
