// Copyright 2026 mvirt authors.

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

func node(id string, status state.NodeStatus, cpu, free int, mem, freeMem int64, labels map[string]string) state.Node {
	return state.Node{
		ID: id, Status: status, Labels: labels,
		Resources: state.NodeResources{CPU: cpu, FreeCPU: free, MemoryMB: mem, FreeMemory: freeMem},
	}
}

func TestSelectFiltersOfflineNodes(t *testing.T) {
	nodes := []state.Node{
		node("n1", state.NodeOffline, 8, 8, 16000, 16000, nil),
		node("n2", state.NodeOnline, 8, 4, 16000, 8000, nil),
	}
	res, err := New().Select(nodes, state.VMSpec{CPU: 2, MemoryMB: 2000})
	require.NoError(t, err)
	assert.Equal(t, "n2", res.NodeID)
}

func TestSelectFailsWhenNoneFit(t *testing.T) {
	nodes := []state.Node{
		node("n1", state.NodeOnline, 8, 1, 16000, 500, nil),
	}
	_, err := New().Select(nodes, state.VMSpec{CPU: 4, MemoryMB: 4000})
	require.Error(t, err)
	var sf *ScheduleFailed
	assert.ErrorAs(t, err, &sf)
}

func TestSelectPicksLeastAllocated(t *testing.T) {
	nodes := []state.Node{
		node("n1", state.NodeOnline, 8, 2, 16000, 4000, nil),  // 75% used
		node("n2", state.NodeOnline, 8, 6, 16000, 12000, nil), // 25% used
	}
	res, err := New().Select(nodes, state.VMSpec{CPU: 1, MemoryMB: 1000})
	require.NoError(t, err)
	assert.Equal(t, "n2", res.NodeID)
}

func TestSelectTieBreaksByLowestNodeID(t *testing.T) {
	nodes := []state.Node{
		node("nodeB", state.NodeOnline, 8, 4, 16000, 8000, nil),
		node("nodeA", state.NodeOnline, 8, 4, 16000, 8000, nil),
	}
	res, err := New().Select(nodes, state.VMSpec{CPU: 1, MemoryMB: 1000})
	require.NoError(t, err)
	assert.Equal(t, "nodeA", res.NodeID)
}

func TestSelectHonorsNodeAffinity(t *testing.T) {
	nodes := []state.Node{
		node("n1", state.NodeOnline, 8, 8, 16000, 16000, map[string]string{"zone": "a"}),
		node("n2", state.NodeOnline, 8, 8, 16000, 16000, map[string]string{"zone": "b"}),
	}
	res, err := New().Select(nodes, state.VMSpec{
		CPU: 1, MemoryMB: 1000, NodeAffinity: map[string]string{"zone": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "n2", res.NodeID)
}
