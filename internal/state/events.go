// Copyright 2026 mvirt authors.

package state

// EventKind discriminates Event. Events describe what changed; they are
// produced by Apply and published out-of-band to subscribers. They never
// feed back into state.
type EventKind string

const (
	EventNodeRegistered        EventKind = "NodeRegistered"
	EventNodeUpdated           EventKind = "NodeUpdated"
	EventNodeDeregistered      EventKind = "NodeDeregistered"
	EventNetworkCreated        EventKind = "NetworkCreated"
	EventNetworkUpdated        EventKind = "NetworkUpdated"
	EventNetworkDeleted        EventKind = "NetworkDeleted"
	EventNicCreated            EventKind = "NicCreated"
	EventNicUpdated            EventKind = "NicUpdated"
	EventNicDeleted            EventKind = "NicDeleted"
	EventVMCreated             EventKind = "VMCreated"
	EventVMUpdated             EventKind = "VMUpdated"
	EventVMStatusUpdated       EventKind = "VMStatusUpdated"
	EventVMDeleted             EventKind = "VMDeleted"
	EventSecurityGroupCreated  EventKind = "SecurityGroupCreated"
	EventSecurityGroupDeleted  EventKind = "SecurityGroupDeleted"
)

// Event carries the discriminant plus the before/after entity values
// relevant to it. Like Command and Response, it is a struct of optional
// payload fields rather than an interface, to keep gob encoding and
// subscriber fan-out ordering simple and deterministic.
type Event struct {
	Kind EventKind

	Node    *Node
	OldNode *Node
	NewNode *Node

	Network    *Network
	OldNetwork *Network
	NewNetwork *Network

	Nic    *Nic
	OldNic *Nic
	NewNic *Nic

	VM    *VM
	OldVM *VM
	NewVM *VM

	ID        string
	NetworkID string
}
