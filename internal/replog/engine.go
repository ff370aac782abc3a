// Copyright 2026 mvirt authors.

package replog

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	boltdb "github.com/hashicorp/raft-boltdb/v2"
	"github.com/google/uuid"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// Config is everything Engine needs to stand up a raft.Raft instance.
type Config struct {
	// NodeID is this server's raft server id, stable across restarts.
	NodeID string
	// BindAddr is the host:port raft's TCP transport listens on.
	BindAddr string
	// DataDir holds the raft log store, stable store, and snapshots.
	DataDir string
	// Bootstrap, when true, initializes a brand-new single-node cluster.
	// Joining nodes must leave this false and arrive via CreateJoinToken.
	Bootstrap bool
}

// ErrNotLeader is returned by WriteOrForward, AdmitVoter and RemoveNode
// whenever this node is not the raft leader, whether or not a leader is
// known.
var ErrNotLeader = fmt.Errorf("replog: no known raft leader")

// Engine is the replication engine: it owns the hashicorp/raft
// instance and the deterministic state.Machine plugged in as its FSM,
// and exposes the small synchronous API the Store Facade is built
// against.
type Engine struct {
	cfg       Config
	raft      *raft.Raft
	fsm       *fsm
	transport *raft.NetworkTransport
	tokens    *tokenStore

	events chan []state.Event
}

// Open starts (or rejoins) a raft node using cfg. Callers own the
// returned Engine's lifetime and must call Shutdown.
func Open(cfg Config) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("replog: create data dir: %w", err)
	}

	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = raft.ServerID(cfg.NodeID)
	raftCfg.Logger = nil // raft builds its own default hclog logger; it does not log through minilog.

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("replog: resolve bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("replog: create transport: %w", err)
	}

	snapshots, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("replog: create snapshot store: %w", err)
	}

	logStore, err := boltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.bolt"))
	if err != nil {
		return nil, fmt.Errorf("replog: create log store: %w", err)
	}
	stableStore, err := boltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.bolt"))
	if err != nil {
		return nil, fmt.Errorf("replog: create stable store: %w", err)
	}

	events := make(chan []state.Event, 256)
	f := newFSM(events)

	r, err := raft.NewRaft(raftCfg, f, logStore, stableStore, snapshots, transport)
	if err != nil {
		return nil, fmt.Errorf("replog: start raft: %w", err)
	}

	e := &Engine{
		cfg: cfg, raft: r, fsm: f, transport: transport,
		tokens: newTokenStore(), events: events,
	}

	if cfg.Bootstrap {
		cfgFuture := r.GetConfiguration()
		if err := cfgFuture.Error(); err != nil {
			return nil, fmt.Errorf("replog: read configuration: %w", err)
		}
		if len(cfgFuture.Configuration().Servers) == 0 {
			bootCfg := raft.Configuration{Servers: []raft.Server{{
				ID:      raftCfg.LocalID,
				Address: transport.LocalAddr(),
			}}}
			if err := r.BootstrapCluster(bootCfg).Error(); err != nil {
				return nil, fmt.Errorf("replog: bootstrap cluster: %w", err)
			}
		}
	}

	return e, nil
}

// Shutdown stops the raft instance and closes its transport.
func (e *Engine) Shutdown() error {
	if err := e.raft.Shutdown().Error(); err != nil {
		return err
	}
	return e.transport.Close()
}

// WriteOrForward submits cmd to the replicated log. On a follower it
// does not proxy the write to the leader; it returns ErrNotLeader. The
// Store Facade does not forward either: it surfaces the failure as
// store.ErrNotLeader.
func (e *Engine) WriteOrForward(cmd state.Command) (state.Response, []state.Event, error) {
	if e.raft.State() != raft.Leader {
		return state.Response{}, nil, ErrNotLeader
	}

	data, err := encodeCommand(cmd)
	if err != nil {
		return state.Response{}, nil, fmt.Errorf("replog: encode command: %w", err)
	}

	future := e.raft.Apply(data, 10*time.Second)
	if err := future.Error(); err != nil {
		return state.Response{}, nil, fmt.Errorf("replog: apply: %w", err)
	}

	result, ok := future.Response().(applyResult)
	if !ok {
		return state.Response{}, nil, fmt.Errorf("replog: unexpected FSM response type %T", future.Response())
	}
	return result.resp, result.events, nil
}

// GetState returns a read-only, deep-copied snapshot of the control
// plane's current state.
func (e *Engine) GetState() *state.State {
	return e.fsm.GetState()
}

// Events returns the channel WriteOrForward's caller-side fan-out
// dispatcher (Store Facade's Subscribe) drains in order.
func (e *Engine) Events() <-chan []state.Event {
	return e.events
}

// IsLeader reports whether this node is the current raft leader.
func (e *Engine) IsLeader() bool {
	return e.raft.State() == raft.Leader
}

// LeaderAddr returns the address of the current raft leader, if known.
func (e *Engine) LeaderAddr() string {
	addr, _ := e.raft.LeaderWithID()
	return string(addr)
}

// ServerInfo describes one member of the raft cluster.
type ServerInfo struct {
	ID       string
	Address  string
	IsLeader bool
}

// GetMembership lists the current raft configuration.
func (e *Engine) GetMembership() ([]ServerInfo, error) {
	future := e.raft.GetConfiguration()
	if err := future.Error(); err != nil {
		return nil, err
	}

	leaderAddr := e.LeaderAddr()
	var out []ServerInfo
	for _, srv := range future.Configuration().Servers {
		out = append(out, ServerInfo{
			ID:       string(srv.ID),
			Address:  string(srv.Address),
			IsLeader: string(srv.Address) == leaderAddr,
		})
	}
	return out, nil
}

// CreateJoinToken mints a short-lived bearer token a new node presents
// to be admitted as a voter. raft has no token concept of its own, so
// this lives entirely in Engine: AdmitVoter checks the token and calls
// AddVoter once it validates it. No transport handler in this package
// receives a token from a remote node.
func (e *Engine) CreateJoinToken(ttl time.Duration) string {
	return e.tokens.issue(ttl)
}

// AdmitVoter validates token and, if valid, adds (nodeID, addr) as a
// voting member. Must be called on the leader.
func (e *Engine) AdmitVoter(token, nodeID, addr string) error {
	if !e.tokens.consume(token) {
		return fmt.Errorf("replog: invalid or expired join token")
	}
	if e.raft.State() != raft.Leader {
		return ErrNotLeader
	}
	future := e.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 10*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("replog: add voter: %w", err)
	}
	minilog.Info("replog: admitted voter %s at %s", nodeID, addr)
	return nil
}

// RemoveNode evicts a member from the raft configuration. Must be called
// on the leader.
func (e *Engine) RemoveNode(nodeID string) error {
	if e.raft.State() != raft.Leader {
		return ErrNotLeader
	}
	future := e.raft.RemoveServer(raft.ServerID(nodeID), 0, 10*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("replog: remove server: %w", err)
	}
	minilog.Info("replog: removed node %s", nodeID)
	return nil
}

// NewNodeID generates a fresh random node id. Nothing in this package
// persists it.
func NewNodeID() string {
	return uuid.NewString()
}
