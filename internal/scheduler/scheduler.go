// Copyright 2026 mvirt authors.

// Package scheduler picks a node to run a new VM. It is consulted only
// by the Store Facade's create_and_schedule_vm composite operation;
// the state machine itself never schedules anything.
package scheduler

import (
	"fmt"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// Result is what a successful Scheduler.Select returns: the chosen node,
// which becomes the VM's status.node_id, and a human-readable reason,
// which becomes its status.message.
type Result struct {
	NodeID string
	Reason string
}

// ScheduleFailed is returned when no node can host the VM.
type ScheduleFailed struct {
	Reason string
}

func (e *ScheduleFailed) Error() string { return e.Reason }

// Scheduler selects a node to host a VM spec out of the given candidate
// nodes.
type Scheduler interface {
	Select(nodes []state.Node, spec state.VMSpec) (Result, error)
}

// RoundRobinLeastAllocated implements a four-step algorithm: filter
// online, filter by fit, break ties by least allocation then lowest
// node id.
type RoundRobinLeastAllocated struct{}

// New returns the reference scheduler.
func New() *RoundRobinLeastAllocated { return &RoundRobinLeastAllocated{} }

// Select implements Scheduler. An empty spec.NodeAffinity is a no-op
// pre-filter; a non-empty one restricts candidates to nodes whose
// Labels contain every key/value pair in NodeAffinity before the
// fit-check runs.
func (s *RoundRobinLeastAllocated) Select(nodes []state.Node, spec state.VMSpec) (Result, error) {
	candidates := filterOnline(nodes)
	candidates = filterAffinity(candidates, spec.NodeAffinity)
	candidates = filterFit(candidates, spec)

	if len(candidates) == 0 {
		return Result{}, &ScheduleFailed{Reason: fmt.Sprintf(
			"no online node has capacity for cpu=%d memory_mb=%d", spec.CPU, spec.MemoryMB)}
	}

	best := candidates[0]
	for _, n := range candidates[1:] {
		if allocationScore(n) < allocationScore(best) ||
			(allocationScore(n) == allocationScore(best) && n.ID < best.ID) {
			best = n
		}
	}

	return Result{
		NodeID: best.ID,
		Reason: fmt.Sprintf("least-allocated fit: free_cpu=%d free_memory_mb=%d", best.Resources.FreeCPU, best.Resources.FreeMemory),
	}, nil
}

func filterOnline(nodes []state.Node) []state.Node {
	out := make([]state.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Status == state.NodeOnline {
			out = append(out, n)
		}
	}
	return out
}

func filterAffinity(nodes []state.Node, affinity map[string]string) []state.Node {
	if len(affinity) == 0 {
		return nodes
	}
	out := make([]state.Node, 0, len(nodes))
	for _, n := range nodes {
		if matchesAffinity(n.Labels, affinity) {
			out = append(out, n)
		}
	}
	return out
}

func matchesAffinity(labels, affinity map[string]string) bool {
	for k, v := range affinity {
		if labels[k] != v {
			return false
		}
	}
	return true
}

func filterFit(nodes []state.Node, spec state.VMSpec) []state.Node {
	out := make([]state.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Resources.FreeCPU >= spec.CPU && n.Resources.FreeMemory >= spec.MemoryMB {
			out = append(out, n)
		}
	}
	return out
}

// allocationScore is lower for nodes with more free capacity relative to
// their total, i.e. "least allocated" sorts first.
func allocationScore(n state.Node) float64 {
	cpuFrac := fraction(n.Resources.CPU-n.Resources.FreeCPU, n.Resources.CPU)
	memFrac := fraction(int(n.Resources.MemoryMB-n.Resources.FreeMemory), int(n.Resources.MemoryMB))
	return cpuFrac + memFrac
}

func fraction(used, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(used) / float64(total)
}
