// Package depgraph models workload dependencies as a directed graph and
// detects cycles before any traversal relies on it terminating.
package depgraph

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var ErrWalkLimit = errors.New("dependency walk limit reached")

// Graph maps a node to the nodes it depends on.
type Graph struct {
	edges map[string][]string
}

func New() *Graph {
	return &Graph{edges: make(map[string][]string)}
}

// Add records id with its dependencies. Self references and duplicates are
// kept as given so that cycles in raw data stay visible.
func (g *Graph) Add(id string, deps []string) {
	g.edges[id] = slices.Clone(deps)
}

func (g *Graph) Has(id string) bool {
	_, ok := g.edges[id]

	return ok
}

func (g *Graph) Len() int {
	return len(g.edges)
}

// Dependencies returns the direct dependencies of id.
func (g *Graph) Dependencies(id string) []string {
	return slices.Clone(g.edges[id])
}

const (
	white = iota
	grey
	black
)

// FindCycle returns one cycle reachable from start as a closed path
// (first element repeated at the end), or nil when there is none.
// Edges to unknown nodes are ignored.
func (g *Graph) FindCycle(start string) []string {
	color := make(map[string]int, len(g.edges))
	stack := make([]string, 0, len(g.edges))

	var visit func(id string) []string

	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)

		for _, dep := range g.edges[id] {
			if !g.Has(dep) {
				continue
			}

			switch color[dep] {
			case grey:
				idx := slices.Index(stack, dep)
				cycle := slices.Clone(stack[idx:])

				return append(cycle, dep)
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black

		return nil
	}

	if !g.Has(start) {
		return nil
	}

	return visit(start)
}

// FetchFunc loads the dependencies of one node. found is false when the
// node no longer exists.
type FetchFunc func(ctx context.Context, id string) (deps []string, found bool, err error)

// Walk builds the graph reachable from root, loading at most limit nodes.
func Walk(ctx context.Context, root string, limit int, fetch FetchFunc) (*Graph, error) {
	g := New()
	queue := []string{root}
	seen := map[string]struct{}{root: {}}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if g.Len() >= limit {
			return nil, fmt.Errorf("%w: %d", ErrWalkLimit, limit)
		}

		deps, found, err := fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", id, err)
		}

		if !found {
			continue
		}

		g.Add(id, deps)

		for _, dep := range deps {
			if _, ok := seen[dep]; ok {
				continue
			}

			seen[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	return g, nil
}
