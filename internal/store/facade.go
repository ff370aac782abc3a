// Copyright 2026 mvirt authors.

package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MalteJ/mvirt-sub000/internal/minilog"
	"github.com/MalteJ/mvirt-sub000/internal/replog"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// engine is the subset of *replog.Engine the facade depends on. Kept as
// an interface so facade tests can run against a fake without standing
// up a real raft cluster.
type engine interface {
	WriteOrForward(cmd state.Command) (state.Response, []state.Event, error)
	GetState() *state.State
	Events() <-chan []state.Event
}

var _ engine = (*replog.Engine)(nil)

// Facade is the single entry point typed per-domain wrappers (Nodes,
// Projects, Networks, ...) submit commands through. One Facade per
// process; the typed wrappers below are thin and cheap to construct.
type Facade struct {
	eng engine

	mu          sync.Mutex
	subscribers map[chan state.Event]struct{}

	Nodes          *Nodes
	Projects       *Projects
	Networks       *Networks
	Nics           *Nics
	VMs            *VMs
	Volumes        *Volumes
	Templates      *Templates
	ImportJobs     *ImportJobs
	SecurityGroups *SecurityGroups
}

// New wires up a Facade over eng and starts its event fan-out
// dispatcher goroutine.
func New(eng engine) *Facade {
	f := &Facade{eng: eng, subscribers: make(map[chan state.Event]struct{})}

	f.Nodes = &Nodes{f: f}
	f.Projects = &Projects{f: f}
	f.Networks = &Networks{f: f}
	f.Nics = &Nics{f: f}
	f.VMs = &VMs{f: f}
	f.Volumes = &Volumes{f: f}
	f.Templates = &Templates{f: f}
	f.ImportJobs = &ImportJobs{f: f}
	f.SecurityGroups = &SecurityGroups{f: f}

	go f.dispatch()
	return f
}

// dispatch reads batches of events off the replication engine and fans
// them out to every subscriber, in order, preserving per-subscriber
// event ordering. A subscriber whose channel is full is slow and loses
// events rather than stalling the others or the engine.
func (f *Facade) dispatch() {
	for batch := range f.eng.Events() {
		f.mu.Lock()
		subs := make([]chan state.Event, 0, len(f.subscribers))
		for ch := range f.subscribers {
			subs = append(subs, ch)
		}
		f.mu.Unlock()

		for _, ev := range batch {
			for _, ch := range subs {
				select {
				case ch <- ev:
				default:
					minilog.Warn("store: subscriber channel full, dropping event %s", ev.Kind)
				}
			}
		}
	}
}

// Subscribe registers a new subscriber and returns a channel the caller
// must drain; call the returned cancel function to unregister.
func (f *Facade) Subscribe() (<-chan state.Event, func()) {
	ch := make(chan state.Event, 256)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		delete(f.subscribers, ch)
		f.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// State returns a read-only, deep-copied snapshot of the control plane.
func (f *Facade) State() *state.State {
	return f.eng.GetState()
}

// submit stamps cmd with a fresh request id/timestamp when the caller
// hasn't already set one (retries reuse the same request id for
// idempotency) and forwards it to the replication engine.
func (f *Facade) submit(cmd state.Command) (state.Response, error) {
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.NewString()
	}
	if cmd.Timestamp == "" {
		cmd.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	resp, _, err := f.eng.WriteOrForward(cmd)
	if err != nil {
		if err == replog.ErrNotLeader {
			return state.Response{}, &Error{Sentinel: ErrNotLeader, Message: err.Error()}
		}
		return state.Response{}, internalf("%v", err)
	}
	if storeErr := fromResponse(resp); storeErr != nil {
		return resp, storeErr
	}
	return resp, nil
}

func newID() string { return uuid.NewString() }
