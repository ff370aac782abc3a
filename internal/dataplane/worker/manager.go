// Copyright 2026 mvirt authors.

package worker

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MalteJ/mvirt-sub000/internal/dataplane/buffer"
	"github.com/MalteJ/mvirt-sub000/internal/dataplane/router"
)

// Manager owns every running vNIC worker and per-network router:
// start/stop one worker, tear down a whole network's workers, and list
// what's active.
type Manager struct {
	mu      sync.Mutex
	workers map[string]*Handle             // nic id -> worker
	routers map[string]*router.Router      // network id -> router
	nicNet  map[string]string              // nic id -> network id
	rxChans map[string]chan *buffer.Buffer // nic id -> its RX injection channel
	pool    *buffer.Pool
	tunTX   chan<- *buffer.Buffer
}

// NewManager creates an empty manager backed by a shared buffer pool.
func NewManager(pool *buffer.Pool, tunTX chan<- *buffer.Buffer) *Manager {
	return &Manager{
		workers: make(map[string]*Handle),
		routers: make(map[string]*router.Router),
		nicNet:  make(map[string]string),
		rxChans: make(map[string]chan *buffer.Buffer),
		pool:    pool,
		tunTX:   tunTX,
	}
}

// Router returns the router for networkID, creating it if necessary.
func (m *Manager) Router(networkID string, isPublic bool, gatewayMAC [6]byte) *router.Router {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routers[networkID]
	if !ok {
		r = router.New(isPublic, gatewayMAC)
		m.routers[networkID] = r
	}
	return r
}

// Start spawns a worker for one vNIC and registers it with the
// network's router.
func (m *Manager) Start(networkID string, cfg Config, mac [6]byte) (*Handle, error) {
	m.mu.Lock()
	if _, exists := m.workers[cfg.NicID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("worker for nic %s already running", cfg.NicID)
	}
	rx := make(chan *buffer.Buffer, rxBatchSize*4)
	cfg.RouterRX = rx
	cfg.Router = m.routers[networkID]
	cfg.Pool = m.pool
	cfg.TunTX = m.tunTX
	m.mu.Unlock()

	if cfg.Router == nil {
		return nil, fmt.Errorf("no router registered for network %s", networkID)
	}

	h, err := Spawn(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.workers[cfg.NicID] = h
	m.nicNet[cfg.NicID] = networkID
	m.rxChans[cfg.NicID] = rx
	m.mu.Unlock()

	cfg.Router.AttachNIC(cfg.NicID, mac, rx)
	return h, nil
}

// Stop stops and removes a single vNIC's worker.
func (m *Manager) Stop(nicID string) {
	m.mu.Lock()
	h, ok := m.workers[nicID]
	networkID := m.nicNet[nicID]
	delete(m.workers, nicID)
	delete(m.nicNet, nicID)
	delete(m.rxChans, nicID)
	r := m.routers[networkID]
	m.mu.Unlock()

	if !ok {
		return
	}
	if r != nil {
		r.DetachNIC(nicID)
	}
	h.Stop()

	// The RX channel is deliberately never closed: DetachNIC and the
	// map deletion above stop new routed sends from finding nicID, but
	// a send already in flight from another worker's route() or the
	// TUN egress path (both non-blocking select/default) would panic
	// against a closed channel rather than just losing the select.
	// Dropping every reference to the channel here and letting GC
	// reclaim it once in-flight senders finish is the only
	// delete-under-traffic path that can't race a panic.
}

// StopAll stops every running worker, concurrently since each worker's
// Stop is independent and a vhost-user session teardown can block on
// its peer for a moment.
func (m *Manager) StopAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.workers))
	for id := range m.workers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			m.Stop(id)
			return nil
		})
	}
	g.Wait()
}

// RemoveNetwork stops every worker belonging to networkID and discards
// its router.
func (m *Manager) RemoveNetwork(networkID string) {
	m.mu.Lock()
	var ids []string
	for nicID, netID := range m.nicNet {
		if netID == networkID {
			ids = append(ids, nicID)
		}
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			m.Stop(id)
			return nil
		})
	}
	g.Wait()

	m.mu.Lock()
	delete(m.routers, networkID)
	m.mu.Unlock()
}

// Routers returns every live per-network router, for the TUN device's
// inbound loop to consult in turn when looking for a public network
// whose LPM table matches an incoming packet's destination.
func (m *Manager) Routers() []*router.Router {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*router.Router, 0, len(m.routers))
	for _, r := range m.routers {
		out = append(out, r)
	}
	return out
}

// ActiveNics returns the NIC IDs with a running worker.
func (m *Manager) ActiveNics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.workers))
	for id := range m.workers {
		out = append(out, id)
	}
	return out
}
