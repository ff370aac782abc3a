// Copyright 2026 mvirt authors.

package worker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/proto"
)

func TestStartFailsWithoutRegisteredRouter(t *testing.T) {
	pool := buffer.NewPool(4)
	m := NewManager(pool, nil)

	cfg := Config{NicID: "nic-1", SocketPath: filepath.Join(t.TempDir(), "nic-1.sock"), Identity: proto.GatewayIdentity{}}
	_, err := m.Start("net-1", cfg, [6]byte{1})
	assert.Error(t, err)
}

func TestRouterIsCreatedOnceAndRemoved(t *testing.T) {
	pool := buffer.NewPool(4)
	m := NewManager(pool, nil)

	r1 := m.Router("net-1", true, [6]byte{1})
	r2 := m.Router("net-1", true, [6]byte{1})
	assert.Same(t, r1, r2)

	m.RemoveNetwork("net-1")

	m.mu.Lock()
	_, exists := m.routers["net-1"]
	m.mu.Unlock()
	assert.False(t, exists)
}

func TestStartSpawnsWorkerWithRegisteredRouter(t *testing.T) {
	pool := buffer.NewPool(4)
	m := NewManager(pool, nil)
	m.Router("net-1", false, [6]byte{2})

	cfg := Config{NicID: "nic-1", SocketPath: filepath.Join(t.TempDir(), "nic-1.sock"), Identity: proto.GatewayIdentity{}}
	h, err := m.Start("net-1", cfg, [6]byte{3})
	require.NoError(t, err)
	defer m.StopAll()

	assert.Contains(t, m.ActiveNics(), "nic-1")
	assert.Equal(t, "nic-1", h.NicID())
}
