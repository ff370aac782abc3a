// Copyright 2026 mvirt authors.

package store

import (
	"github.com/MalteJ/mvirt-sub000/internal/scheduler"
	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// VMs is the typed wrapper for VM lifecycle commands, plus the
// CreateAndSchedule composite operation.
type VMs struct{ f *Facade }

func (v *VMs) List() []state.VM {
	s := v.f.State()
	out := make([]state.VM, 0, len(s.VMs))
	for _, vm := range s.VMs {
		out = append(out, vm)
	}
	return out
}

func (v *VMs) ListByProject(projectID string) []state.VM {
	s := v.f.State()
	var out []state.VM
	for _, vm := range s.VMs {
		if nic, ok := s.Nics[vm.Spec.NicID]; ok && nic.ProjectID == projectID {
			out = append(out, vm)
		}
	}
	return out
}

func (v *VMs) ListByNode(nodeID string) []state.VM {
	var out []state.VM
	for _, vm := range v.List() {
		if vm.Status.NodeID == nodeID {
			out = append(out, vm)
		}
	}
	return out
}

func (v *VMs) Get(id string) (state.VM, bool) {
	s := v.f.State()
	vm, ok := s.VMs[id]
	return vm, ok
}

func (v *VMs) GetByName(name string) (state.VM, bool) {
	for _, vm := range v.List() {
		if vm.Spec.Name == name {
			return vm, true
		}
	}
	return state.VM{}, false
}

func (v *VMs) Create(spec state.VMSpec) (state.VM, error) {
	resp, err := v.f.submit(state.Command{
		Kind:     state.KindCreateVM,
		CreateVM: &state.CreateVMCmd{ID: newID(), Spec: spec},
	})
	if err != nil {
		return state.VM{}, err
	}
	return *resp.VM, nil
}

// CreateAndSchedule is a composite operation: it consults sched over
// the currently known nodes before creating the VM, then immediately
// transitions it to Scheduled on the chosen node. Scheduling failure
// leaves no VM behind.
func (v *VMs) CreateAndSchedule(spec state.VMSpec, sched scheduler.Scheduler) (state.VM, error) {
	nodes := v.f.Nodes.List()

	result, err := sched.Select(nodes, spec)
	if err != nil {
		return state.VM{}, &Error{Sentinel: ErrScheduleFailed, Message: err.Error()}
	}

	vm, err := v.Create(spec)
	if err != nil {
		return state.VM{}, err
	}

	return v.UpdateStatus(vm.ID, state.VMStatus{
		Phase:   state.VMScheduled,
		NodeID:  result.NodeID,
		Message: result.Reason,
	})
}

func (v *VMs) UpdateSpec(id, desiredState string) (state.VM, error) {
	resp, err := v.f.submit(state.Command{
		Kind:         state.KindUpdateVMSpec,
		UpdateVMSpec: &state.UpdateVMSpecCmd{ID: id, DesiredState: desiredState},
	})
	if err != nil {
		return state.VM{}, err
	}
	return *resp.VM, nil
}

func (v *VMs) UpdateStatus(id string, status state.VMStatus) (state.VM, error) {
	resp, err := v.f.submit(state.Command{
		Kind:           state.KindUpdateVMStatus,
		UpdateVMStatus: &state.UpdateVMStatusCmd{ID: id, Status: status},
	})
	if err != nil {
		return state.VM{}, err
	}
	return *resp.VM, nil
}

func (v *VMs) Delete(id string) error {
	_, err := v.f.submit(state.Command{
		Kind:     state.KindDeleteVM,
		DeleteVM: &state.DeleteVMCmd{ID: id},
	})
	return err
}
