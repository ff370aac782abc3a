// Copyright 2026 mvirt authors.

package state

func (m *Machine) applyCreateVM(ts string, c *CreateVMCmd) (Response, []Event) {
	for _, v := range m.state.VMs {
		if v.Spec.Name == c.Spec.Name {
			return errResp(409, "VM with name %q already exists", c.Spec.Name), nil
		}
	}
	if existing, ok := m.state.VMs[c.ID]; ok {
		return Response{Kind: RespVM, VM: &existing}, nil
	}
	if _, ok := m.state.Nics[c.Spec.NicID]; !ok {
		return errResp(404, "NIC %q not found", c.Spec.NicID), nil
	}

	vm := VM{
		ID:        c.ID,
		Spec:      c.Spec,
		Status:    VMStatus{Phase: VMPending},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	m.state.VMs[c.ID] = vm

	return Response{Kind: RespVM, VM: &vm}, []Event{{Kind: EventVMCreated, VM: &vm}}
}

func (m *Machine) applyUpdateVMSpec(ts string, c *UpdateVMSpecCmd) (Response, []Event) {
	old, ok := m.state.VMs[c.ID]
	if !ok {
		return errResp(404, "VM %q not found", c.ID), nil
	}

	vm := old
	vm.Spec.DesiredState = c.DesiredState
	vm.UpdatedAt = ts
	m.state.VMs[c.ID] = vm

	return Response{Kind: RespVM, VM: &vm}, []Event{{Kind: EventVMUpdated, OldVM: &old, NewVM: &vm}}
}

func (m *Machine) applyUpdateVMStatus(ts string, c *UpdateVMStatusCmd) (Response, []Event) {
	old, ok := m.state.VMs[c.ID]
	if !ok {
		return errResp(404, "VM %q not found", c.ID), nil
	}

	vm := old
	vm.Status = c.Status
	vm.UpdatedAt = ts
	m.state.VMs[c.ID] = vm

	return Response{Kind: RespVM, VM: &vm}, []Event{{Kind: EventVMStatusUpdated, OldVM: &old, NewVM: &vm}}
}

func (m *Machine) applyDeleteVM(c *DeleteVMCmd) (Response, []Event) {
	if _, ok := m.state.VMs[c.ID]; !ok {
		return errResp(404, "VM %q not found", c.ID), nil
	}
	delete(m.state.VMs, c.ID)

	return Response{Kind: RespDeleted, DeletedID: c.ID}, []Event{{Kind: EventVMDeleted, ID: c.ID}}
}
