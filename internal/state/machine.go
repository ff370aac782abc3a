// Copyright 2026 mvirt authors.

package state

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Machine is the control plane's deterministic state machine. It owns no
// I/O, no wall clock, and no randomness: Apply is a pure function of the
// pre-state and the command. The replication engine is the only caller,
// and it serializes calls to Apply so Machine itself needs no internal
// locking around mutation.
type Machine struct {
	state *State

	// idempotent caches Response by request id. It is runtime-only:
	// never serialized into a snapshot, rebuilt empty on restart, and
	// restart-safety instead falls out of commands re-deriving the
	// same entity for a given id.
	idempotent *lru.Cache[string, Response]
}

// idempotencyCacheSize bounds the idempotency cache's LRU.
const idempotencyCacheSize = 1000

// NewMachine returns a Machine seeded with an empty State.
func NewMachine() *Machine {
	cache, err := lru.New[string, Response](idempotencyCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// idempotencyCacheSize never is.
		panic(err)
	}
	return &Machine{state: NewState(), idempotent: cache}
}

// Load replaces the Machine's state wholesale, e.g. after a snapshot
// restore. The idempotency cache is intentionally left untouched/empty:
// it is never part of a snapshot.
func (m *Machine) Load(s *State) {
	m.state = s
}

// State returns the live state value. Callers that need a stable,
// isolated read should call Snapshot instead.
func (m *Machine) State() *State {
	return m.state
}

// Snapshot returns a deep copy of the current state, safe to read after
// further calls to Apply.
func (m *Machine) Snapshot() *State {
	return m.state.Clone()
}

// Apply executes exactly one Command against the state machine,
// returning the Response and the ordered Events it produced. Same
// pre-state + same command => same post-state + same response + same
// events.
func (m *Machine) Apply(cmd Command) (Response, []Event) {
	if cmd.RequestID != "" {
		if cached, ok := m.idempotent.Get(cmd.RequestID); ok {
			return cached, nil
		}
	}

	resp, events := m.dispatch(cmd)

	if cmd.RequestID != "" {
		m.idempotent.Add(cmd.RequestID, resp)
	}
	return resp, events
}

func (m *Machine) dispatch(cmd Command) (Response, []Event) {
	switch cmd.Kind {
	case KindRegisterNode:
		return m.applyRegisterNode(cmd.Timestamp, cmd.RegisterNode)
	case KindUpdateNodeStatus:
		return m.applyUpdateNodeStatus(cmd.Timestamp, cmd.UpdateNodeStatus)
	case KindUpdateNodeLabels:
		return m.applyUpdateNodeLabels(cmd.Timestamp, cmd.UpdateNodeLabels)
	case KindDeregisterNode:
		return m.applyDeregisterNode(cmd.DeregisterNode)
	case KindCreateProject:
		return m.applyCreateProject(cmd.Timestamp, cmd.CreateProject)
	case KindDeleteProject:
		return m.applyDeleteProject(cmd.DeleteProject)
	case KindCreateNetwork:
		return m.applyCreateNetwork(cmd.Timestamp, cmd.CreateNetwork)
	case KindUpdateNetwork:
		return m.applyUpdateNetwork(cmd.Timestamp, cmd.UpdateNetwork)
	case KindDeleteNetwork:
		return m.applyDeleteNetwork(cmd.DeleteNetwork)
	case KindCreateNic:
		return m.applyCreateNic(cmd.Timestamp, cmd.CreateNic)
	case KindUpdateNic:
		return m.applyUpdateNic(cmd.Timestamp, cmd.UpdateNic)
	case KindDeleteNic:
		return m.applyDeleteNic(cmd.DeleteNic)
	case KindAttachNic:
		return m.applyAttachNic(cmd.Timestamp, cmd.AttachNic)
	case KindDetachNic:
		return m.applyDetachNic(cmd.Timestamp, cmd.DetachNic)
	case KindCreateVM:
		return m.applyCreateVM(cmd.Timestamp, cmd.CreateVM)
	case KindUpdateVMSpec:
		return m.applyUpdateVMSpec(cmd.Timestamp, cmd.UpdateVMSpec)
	case KindUpdateVMStatus:
		return m.applyUpdateVMStatus(cmd.Timestamp, cmd.UpdateVMStatus)
	case KindDeleteVM:
		return m.applyDeleteVM(cmd.DeleteVM)
	case KindCreateVolume:
		return m.applyCreateVolume(cmd.Timestamp, cmd.CreateVolume)
	case KindResizeVolume:
		return m.applyResizeVolume(cmd.Timestamp, cmd.ResizeVolume)
	case KindCreateSnapshot:
		return m.applyCreateSnapshot(cmd.Timestamp, cmd.CreateSnapshot)
	case KindDeleteVolume:
		return m.applyDeleteVolume(cmd.DeleteVolume)
	case KindCreateTemplate:
		return m.applyCreateTemplate(cmd.Timestamp, cmd.CreateTemplate)
	case KindCreateImportJob:
		return m.applyCreateImportJob(cmd.Timestamp, cmd.CreateImportJob)
	case KindUpdateImportJob:
		return m.applyUpdateImportJob(cmd.Timestamp, cmd.UpdateImportJob)
	case KindCreateSecurityGroup:
		return m.applyCreateSecurityGroup(cmd.Timestamp, cmd.CreateSecurityGroup)
	case KindDeleteSecurityGroup:
		return m.applyDeleteSecurityGroup(cmd.DeleteSecurityGroup)
	case KindCreateSGRule:
		return m.applyCreateSGRule(cmd.Timestamp, cmd.CreateSGRule)
	case KindDeleteSGRule:
		return m.applyDeleteSGRule(cmd.DeleteSGRule)
	default:
		return errResp(400, "unknown command kind %q", cmd.Kind), nil
	}
}
