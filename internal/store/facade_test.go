// Copyright 2026 mvirt authors.

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/scheduler"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// fakeEngine drives an in-process state.Machine directly, standing in
// for replog.Engine so the facade can be tested without a raft cluster.
type fakeEngine struct {
	m      *state.Machine
	events chan []state.Event
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{m: state.NewMachine(), events: make(chan []state.Event, 64)}
}

func (e *fakeEngine) WriteOrForward(cmd state.Command) (state.Response, []state.Event, error) {
	resp, events := e.m.Apply(cmd)
	if len(events) > 0 {
		e.events <- events
	}
	return resp, events, nil
}

func (e *fakeEngine) GetState() *state.State       { return e.m.Snapshot() }
func (e *fakeEngine) Events() <-chan []state.Event { return e.events }

func TestCreateProjectAndNetwork(t *testing.T) {
	f := New(newFakeEngine())

	proj, err := f.Projects.Create("demo", "")
	require.NoError(t, err)
	assert.NotEmpty(t, proj.ID)

	net, err := f.Networks.Create(CreateNetworkRequest{
		ProjectID: proj.ID, Name: "lan", IPv4Enabled: true, IPv4Prefix: "10.0.0.0/24",
	})
	require.NoError(t, err)
	assert.Equal(t, proj.ID, net.ProjectID)

	_, err = f.Networks.Create(CreateNetworkRequest{
		ProjectID: proj.ID, Name: "lan", IPv4Enabled: true, IPv4Prefix: "10.1.0.0/24",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubscribeReceivesOrderedEvents(t *testing.T) {
	f := New(newFakeEngine())
	ch, cancel := f.Subscribe()
	defer cancel()

	proj, err := f.Projects.Create("demo", "")
	require.NoError(t, err)
	net, err := f.Networks.Create(CreateNetworkRequest{
		ProjectID: proj.ID, Name: "lan", IPv4Enabled: true, IPv4Prefix: "10.0.0.0/24",
	})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, state.EventNetworkCreated, ev.Kind)
		assert.Equal(t, net.ID, ev.Network.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCreateAndScheduleVM(t *testing.T) {
	f := New(newFakeEngine())

	proj, err := f.Projects.Create("demo", "")
	require.NoError(t, err)
	net, err := f.Networks.Create(CreateNetworkRequest{
		ProjectID: proj.ID, Name: "lan", IPv4Enabled: true, IPv4Prefix: "10.0.0.0/24",
	})
	require.NoError(t, err)
	nic, err := f.Nics.Create(CreateNicRequest{ProjectID: proj.ID, NetworkID: net.ID})
	require.NoError(t, err)

	_, err = f.Nodes.Register("n1", "node1", "10.0.0.1:7000", state.NodeResources{
		CPU: 8, MemoryMB: 16000, FreeCPU: 8, FreeMemory: 16000,
	}, nil)
	require.NoError(t, err)

	vm, err := f.VMs.CreateAndSchedule(state.VMSpec{
		Name: "web", NicID: nic.ID, CPU: 2, MemoryMB: 2000,
	}, scheduler.New())
	require.NoError(t, err)
	assert.Equal(t, state.VMScheduled, vm.Status.Phase)
	assert.Equal(t, "n1", vm.Status.NodeID)
}

func TestCreateAndScheduleVMFailsWithNoCapacity(t *testing.T) {
	f := New(newFakeEngine())

	proj, err := f.Projects.Create("demo", "")
	require.NoError(t, err)
	net, err := f.Networks.Create(CreateNetworkRequest{
		ProjectID: proj.ID, Name: "lan", IPv4Enabled: true, IPv4Prefix: "10.0.0.0/24",
	})
	require.NoError(t, err)
	nic, err := f.Nics.Create(CreateNicRequest{ProjectID: proj.ID, NetworkID: net.ID})
	require.NoError(t, err)

	_, err = f.VMs.CreateAndSchedule(state.VMSpec{
		Name: "web", NicID: nic.ID, CPU: 2, MemoryMB: 2000,
	}, scheduler.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScheduleFailed)

	assert.Empty(t, f.VMs.List())
}
