// Copyright 2026 mvirt authors.

package state

import "fmt"

// ResponseKind discriminates Response the same way CommandKind
// discriminates Command.
type ResponseKind string

const (
	RespNode              ResponseKind = "Node"
	RespProject           ResponseKind = "Project"
	RespNetwork           ResponseKind = "Network"
	RespNic               ResponseKind = "Nic"
	RespVM                ResponseKind = "VM"
	RespVolume            ResponseKind = "Volume"
	RespTemplate          ResponseKind = "Template"
	RespImportJob         ResponseKind = "ImportJob"
	RespSecurityGroup     ResponseKind = "SecurityGroup"
	RespDeleted           ResponseKind = "Deleted"
	RespDeletedWithCount  ResponseKind = "DeletedWithCount"
	RespError             ResponseKind = "Error"
)

// Error is an HTTP-style (code, message) pair. It travels through the
// replicated log as ordinary response data, never as a Go error, so
// that it stays part of the deterministic output.
type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string { return e.Message }

func errResp(code int, format string, args ...any) Response {
	return Response{Kind: RespError, Err: &Error{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// Response is the result of Apply: exactly one of the typed payload
// fields is set, matching the Kind.
type Response struct {
	Kind ResponseKind

	Node          *Node
	Project       *Project
	Network       *Network
	Nic           *Nic
	VM            *VM
	Volume        *Volume
	Template      *Template
	ImportJob     *ImportJob
	SecurityGroup *SecurityGroup

	DeletedID   string
	NicsDeleted int

	Err *Error
}

// IsError reports whether this Response carries an Error payload.
func (r Response) IsError() bool { return r.Kind == RespError }
