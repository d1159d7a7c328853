package depgraph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/logic/depgraph"
)

type findCycleCase struct {
	name      string
	giveEdges map[string][]string
	giveStart string
	wantCycle []string
}

func TestGraph_FindCycle(t *testing.T) {
	t.Parallel()

	tests := []findCycleCase{
		{
			name:      "chain has no cycle",
			giveEdges: map[string][]string{"a": {"b"}, "b": {"c"}, "c": nil},
			giveStart: "a",
		},
		{
			name:      "diamond has no cycle",
			giveEdges: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}, "d": nil},
			giveStart: "a",
		},
		{
			name:      "self reference",
			giveEdges: map[string][]string{"a": {"a"}},
			giveStart: "a",
			wantCycle: []string{"a", "a"},
		},
		{
			name:      "two node cycle",
			giveEdges: map[string][]string{"a": {"b"}, "b": {"a"}},
			giveStart: "a",
			wantCycle: []string{"a", "b", "a"},
		},
		{
			name:      "cycle reachable downstream",
			giveEdges: map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"d"}, "d": {"b"}},
			giveStart: "a",
			wantCycle: []string{"b", "c", "d", "b"},
		},
		{
			name:      "edge to unknown node ignored",
			giveEdges: map[string][]string{"a": {"gone"}},
			giveStart: "a",
		},
		{
			name:      "unknown start",
			giveEdges: map[string][]string{"a": {"a"}},
			giveStart: "z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := depgraph.New()
			for id, deps := range tt.giveEdges {
				g.Add(id, deps)
			}

			require.Equal(t, tt.wantCycle, g.FindCycle(tt.giveStart))
		})
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	store := map[string][]string{
		"a": {"b", "missing"},
		"b": {"c"},
		"c": {"a"},
	}

	fetch := func(_ context.Context, id string) ([]string, bool, error) {
		deps, ok := store[id]

		return deps, ok, nil
	}

	t.Run("loads reachable nodes and skips missing", func(t *testing.T) {
		t.Parallel()

		g, err := depgraph.Walk(t.Context(), "a", 10, fetch)
		require.NoError(t, err)
		require.Equal(t, 3, g.Len())
		require.False(t, g.Has("missing"))
		require.NotNil(t, g.FindCycle("a"))
	})

	t.Run("limit reached", func(t *testing.T) {
		t.Parallel()

		_, err := depgraph.Walk(t.Context(), "a", 2, fetch)
		require.ErrorIs(t, err, depgraph.ErrWalkLimit)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")

		_, err := depgraph.Walk(t.Context(), "a", 10, func(context.Context, string) ([]string, bool, error) {
			return nil, false, boom
		})
		require.ErrorIs(t, err, boom)
	})
}
