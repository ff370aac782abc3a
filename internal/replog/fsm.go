// Copyright 2026 mvirt authors.

package replog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// applyResult is what fsm.Apply stuffs into raft.Log's return value;
// Engine.WriteOrForward type-asserts it back out of the ApplyFuture.
type applyResult struct {
	resp   state.Response
	events []state.Event
}

// fsm adapts state.Machine to raft.FSM. raft.Raft serializes calls to
// Apply/Snapshot/Restore on a single internal goroutine, so Machine's own
// lack of locking is safe here.
type fsm struct {
	mu sync.Mutex
	m  *state.Machine

	// subscribers receives every event produced by Apply, in order, for
	// the Store Facade's fan-out dispatcher.
	subscribers chan<- []state.Event
}

func newFSM(subscribers chan<- []state.Event) *fsm {
	return &fsm{m: state.NewMachine(), subscribers: subscribers}
}

// Apply decodes one replicated log entry and applies it to the state
// machine. Returning a Go error here would crash the raft FSM goroutine,
// so decode failures are logged and surfaced as a state.Error response
// instead of panicking — the log entry was committed by a majority, so
// refusing to apply it would diverge the cluster.
func (f *fsm) Apply(l *raft.Log) interface{} {
	cmd, err := decodeCommand(l.Data)
	if err != nil {
		minilog.Error("replog: failed to decode log entry at index %d: %v", l.Index, err)
		return applyResult{resp: state.Response{
			Kind: state.RespError,
			Err:  &state.Error{Code: 500, Message: fmt.Sprintf("corrupt log entry: %v", err)},
		}}
	}

	f.mu.Lock()
	resp, events := f.m.Apply(cmd)
	f.mu.Unlock()

	if len(events) > 0 && f.subscribers != nil {
		select {
		case f.subscribers <- events:
		default:
			minilog.Warn("replog: event dispatch channel full, dropping %d event(s)", len(events))
		}
	}

	return applyResult{resp: resp, events: events}
}

// Snapshot returns a point-in-time copy of the state machine for raft to
// persist. The copy is taken under the same lock Apply uses, so it can
// never observe a partially-applied command.
func (f *fsm) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	snap := f.m.Snapshot()
	f.mu.Unlock()
	return &fsmSnapshot{state: snap}, nil
}

// Restore replaces the state machine wholesale from a previously
// persisted snapshot. The idempotency cache is never part of a
// snapshot and starts empty after a restore.
func (f *fsm) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var s state.State
	if err := gob.NewDecoder(rc).Decode(&s); err != nil {
		return fmt.Errorf("replog: decode snapshot: %w", err)
	}

	f.mu.Lock()
	f.m.Load(&s)
	f.mu.Unlock()
	return nil
}

// GetState returns a deep copy of the live control-plane state, safe for
// the caller to read without further synchronization.
func (f *fsm) GetState() *state.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m.Snapshot()
}

type fsmSnapshot struct {
	state *state.State
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.state); err != nil {
		sink.Cancel()
		return err
	}
	if _, err := sink.Write(buf.Bytes()); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}
