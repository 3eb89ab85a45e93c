package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sortedSCCs(comps [][]int) [][]int {
	out := make([][]int, len(comps))
	for i, c := range comps {
		c2 := append([]int(nil), c...)
		sort.Ints(c2)
		out[i] = c2
	}
	return out
}

func TestSCCsAcyclic(t *testing.T) {
	// graphMuchnick without its 3 -> 2 back edge.
	g := IntGraph{
		0: {1},
		1: {2},
		2: {3, 4},
		3: {},
		4: {5, 6},
		5: {7},
		6: {7},
		7: {},
	}
	comps := SCCs(g)
	// Every component of an acyclic graph is a singleton, and the
	// overall order must be reverse topological: 2's callee, 3,
	// must appear strictly before 2.
	for _, c := range comps {
		assert.Len(t, c, 1)
	}

	pos := make(map[int]int)
	for i, c := range comps {
		pos[c[0]] = i
	}
	assert.Less(t, pos[3], pos[2])
	assert.Less(t, pos[2], pos[1])
	assert.Less(t, pos[1], pos[0])
}

func TestSCCsCycle(t *testing.T) {
	g := IntGraph{
		0: {1},
		1: {2},
		2: {1, 3}, // 1 <-> 2 is a cycle
		3: {},
	}
	comps := sortedSCCs(SCCs(g))

	var found bool
	for _, c := range comps {
		if len(c) == 2 {
			assert.Equal(t, []int{1, 2}, c)
			found = true
		}
	}
	assert.True(t, found, "expected a 2-node component for {1,2}")
}

func TestIsCyclicComponent(t *testing.T) {
	g := IntGraph{
		0: {0}, // self-loop
		1: {2},
		2: {},
	}
	assert.True(t, IsCyclicComponent(g, []int{0}))
	assert.False(t, IsCyclicComponent(g, []int{1}))
	assert.True(t, IsCyclicComponent(g, []int{1, 2}))
}
