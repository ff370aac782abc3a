// Copyright 2026 mvirt authors.

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createNetworkCmd(reqID, id, name string) Command {
	return Command{
		Kind: KindCreateNetwork, RequestID: reqID, Timestamp: "t0",
		CreateNetwork: &CreateNetworkCmd{
			ID: id, ProjectID: "p1", Name: name,
			IPv4Enabled: true, IPv4Prefix: "10.0.0.0/24",
		},
	}
}

// S1: duplicate-name network.
func TestDuplicateNetworkName(t *testing.T) {
	m := NewMachine()

	resp, _ := m.Apply(createNetworkCmd("r1", "n1", "lan"))
	require.Equal(t, RespNetwork, resp.Kind)
	assert.Equal(t, "n1", resp.Network.ID)

	resp2, _ := m.Apply(createNetworkCmd("r2", "n2", "lan"))
	require.True(t, resp2.IsError())
	assert.Equal(t, 409, resp2.Err.Code)
}

// S2: idempotent create by id.
func TestIdempotentCreateByID(t *testing.T) {
	m := NewMachine()

	resp1, _ := m.Apply(createNetworkCmd("r1", "x", "first"))
	require.Equal(t, "first", resp1.Network.Name)

	resp2, _ := m.Apply(createNetworkCmd("r2", "x", "second"))
	require.Equal(t, RespNetwork, resp2.Kind)
	assert.Equal(t, "first", resp2.Network.Name)
}

// P2: apply(c); apply(c) is a no-op the second time.
func TestIdempotencyCacheHit(t *testing.T) {
	m := NewMachine()

	cmd := createNetworkCmd("req-1", "n1", "lan")
	resp1, events1 := m.Apply(cmd)
	require.NotEmpty(t, events1)

	resp2, events2 := m.Apply(cmd)
	assert.Equal(t, resp1, resp2)
	assert.Empty(t, events2)
}

func createNicCmd(reqID, id, networkID string) Command {
	return Command{
		Kind: KindCreateNic, RequestID: reqID, Timestamp: "t0",
		CreateNic: &CreateNicCmd{ID: id, ProjectID: "p1", NetworkID: networkID},
	}
}

// S3: force-delete cascade.
func TestForceDeleteNetworkCascade(t *testing.T) {
	m := NewMachine()
	m.Apply(createNetworkCmd("r1", "n", "lan"))
	m.Apply(createNicCmd("r2", "nic1", "n"))
	m.Apply(createNicCmd("r3", "nic2", "n"))

	resp, _ := m.Apply(Command{
		Kind: KindDeleteNetwork, RequestID: "r4", Timestamp: "t1",
		DeleteNetwork: &DeleteNetworkCmd{ID: "n", Force: true},
	})
	require.Equal(t, RespDeletedWithCount, resp.Kind)
	assert.Equal(t, 2, resp.NicsDeleted)

	_, ok := m.State().Nics["nic1"]
	assert.False(t, ok)
	_, ok = m.State().Nics["nic2"]
	assert.False(t, ok)
}

func TestDeleteNetworkWithoutForceFails(t *testing.T) {
	m := NewMachine()
	m.Apply(createNetworkCmd("r1", "n", "lan"))
	m.Apply(createNicCmd("r2", "nic1", "n"))

	resp, _ := m.Apply(Command{
		Kind: KindDeleteNetwork, RequestID: "r3", Timestamp: "t1",
		DeleteNetwork: &DeleteNetworkCmd{ID: "n"},
	})
	require.True(t, resp.IsError())
	assert.Equal(t, 409, resp.Err.Code)
}

// S4: grow-only volume.
func TestGrowOnlyVolume(t *testing.T) {
	m := NewMachine()
	m.Apply(Command{Kind: KindCreateProject, RequestID: "r0", Timestamp: "t0",
		CreateProject: &CreateProjectCmd{ID: "p1", Name: "proj"}})

	resp, _ := m.Apply(Command{
		Kind: KindCreateVolume, RequestID: "r1", Timestamp: "t0",
		CreateVolume: &CreateVolumeCmd{ID: "v1", ProjectID: "p1", NodeID: "node1", Name: "vol", SizeBytes: 1000},
	})
	require.Equal(t, RespVolume, resp.Kind)

	resp2, _ := m.Apply(Command{
		Kind: KindResizeVolume, RequestID: "r2", Timestamp: "t1",
		ResizeVolume: &ResizeVolumeCmd{ID: "v1", SizeBytes: 2000},
	})
	require.Equal(t, RespVolume, resp2.Kind)
	assert.EqualValues(t, 2000, resp2.Volume.SizeBytes)

	resp3, _ := m.Apply(Command{
		Kind: KindResizeVolume, RequestID: "r3", Timestamp: "t2",
		ResizeVolume: &ResizeVolumeCmd{ID: "v1", SizeBytes: 1500},
	})
	require.True(t, resp3.IsError())
	assert.Equal(t, 400, resp3.Err.Code)
	assert.Contains(t, resp3.Err.Message, "shrink")
}

// S5: template clone count.
func TestTemplateCloneCount(t *testing.T) {
	m := NewMachine()
	m.Apply(Command{Kind: KindCreateProject, RequestID: "r0", Timestamp: "t0",
		CreateProject: &CreateProjectCmd{ID: "p1", Name: "proj"}})
	m.Apply(Command{Kind: KindCreateTemplate, RequestID: "r1", Timestamp: "t0",
		CreateTemplate: &CreateTemplateCmd{ID: "t1", ProjectID: "p1", NodeID: "node1", Name: "base"}})

	m.Apply(Command{Kind: KindCreateVolume, RequestID: "r2", Timestamp: "t0",
		CreateVolume: &CreateVolumeCmd{ID: "v1", ProjectID: "p1", NodeID: "node1", Name: "clone1", TemplateID: "t1"}})
	assert.Equal(t, 1, m.State().Templates["t1"].CloneCount)

	m.Apply(Command{Kind: KindDeleteVolume, RequestID: "r3", Timestamp: "t1",
		DeleteVolume: &DeleteVolumeCmd{ID: "v1"}})
	assert.Equal(t, 0, m.State().Templates["t1"].CloneCount)
}

// P1/determinism: two freshly constructed machines fed the same command
// sequence end up bit-identical in state and produce identical response
// sequences.
func TestDeterminismAcrossReplicas(t *testing.T) {
	cmds := []Command{
		createNetworkCmd("r1", "n1", "lan"),
		createNicCmd("r2", "nic1", "n1"),
		createNicCmd("r3", "nic2", "n1"),
		{Kind: KindUpdateNic, RequestID: "r4", Timestamp: "t1",
			UpdateNic: &UpdateNicCmd{ID: "nic1", RoutedIPv4Prefixes: []string{"10.1.0.0/24"}}},
	}

	a, b := NewMachine(), NewMachine()
	for _, c := range cmds {
		ra, _ := a.Apply(c)
		rb, _ := b.Apply(c)
		assert.Equal(t, ra, rb)
	}
	assert.Equal(t, a.State(), b.State())
}

// P3: nic_count invariant.
func TestNicCountInvariant(t *testing.T) {
	m := NewMachine()
	m.Apply(createNetworkCmd("r1", "n1", "lan"))
	m.Apply(createNicCmd("r2", "nic1", "n1"))
	m.Apply(createNicCmd("r3", "nic2", "n1"))

	assert.Equal(t, 2, m.State().Networks["n1"].NicCount)

	m.Apply(Command{Kind: KindDeleteNic, RequestID: "r4", Timestamp: "t1",
		DeleteNic: &DeleteNicCmd{ID: "nic1"}})
	assert.Equal(t, 1, m.State().Networks["n1"].NicCount)
}

func TestAttachDetachNic(t *testing.T) {
	m := NewMachine()
	m.Apply(createNetworkCmd("r1", "n1", "lan"))
	m.Apply(createNicCmd("r2", "nic1", "n1"))
	m.Apply(Command{Kind: KindCreateVM, RequestID: "r3", Timestamp: "t0",
		CreateVM: &CreateVMCmd{ID: "vm1", Spec: VMSpec{Name: "web", NicID: "nic1"}}})

	resp, _ := m.Apply(Command{Kind: KindAttachNic, RequestID: "r4", Timestamp: "t1",
		AttachNic: &AttachNicCmd{ID: "nic1", VMID: "vm1"}})
	require.Equal(t, RespNic, resp.Kind)
	assert.Equal(t, "vm1", resp.Nic.VMID)

	resp2, _ := m.Apply(Command{Kind: KindAttachNic, RequestID: "r5", Timestamp: "t1",
		AttachNic: &AttachNicCmd{ID: "nic1", VMID: "vm1"}})
	require.True(t, resp2.IsError())
	assert.Equal(t, 409, resp2.Err.Code)

	resp3, _ := m.Apply(Command{Kind: KindDetachNic, RequestID: "r6", Timestamp: "t2",
		DetachNic: &DetachNicCmd{ID: "nic1"}})
	require.Equal(t, RespNic, resp3.Kind)
	assert.Empty(t, resp3.Nic.VMID)
}

func TestPublicNetworkOverlapRejected(t *testing.T) {
	m := NewMachine()
	resp, _ := m.Apply(Command{Kind: KindCreateNetwork, RequestID: "r1", Timestamp: "t0",
		CreateNetwork: &CreateNetworkCmd{ID: "n1", Name: "pub1", IPv4Enabled: true, IPv4Prefix: "203.0.113.0/24", IsPublic: true}})
	require.Equal(t, RespNetwork, resp.Kind)

	resp2, _ := m.Apply(Command{Kind: KindCreateNetwork, RequestID: "r2", Timestamp: "t0",
		CreateNetwork: &CreateNetworkCmd{ID: "n2", Name: "pub2", IPv4Enabled: true, IPv4Prefix: "203.0.113.128/25", IsPublic: true}})
	require.True(t, resp2.IsError())
	assert.Equal(t, 409, resp2.Err.Code)
}
