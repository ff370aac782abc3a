// Copyright 2026 mvirt authors.

// Package store is the Store Facade: typed, per-domain wrappers that
// submit commands through the Replication Engine and surface
// results/events as ordinary Go values and errors, so that handlers
// never see state.Command/state.Response directly.
package store

import (
	"errors"
	"fmt"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// Sentinel errors, comparable with errors.Is.
var (
	ErrNotFound       = errors.New("store: not found")
	ErrConflict       = errors.New("store: conflict")
	ErrNotLeader      = errors.New("store: not leader")
	ErrScheduleFailed = errors.New("store: schedule failed")
	ErrInternal       = errors.New("store: internal error")
)

// Error wraps a state.Error (or an internal failure) with an
// errors.Is-comparable sentinel, so callers can branch with errors.Is
// instead of inspecting HTTP-style codes.
type Error struct {
	Sentinel error
	Message  string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Sentinel }

// fromResponse converts a state.Response into (payload already
// extracted by the caller, error): nil if resp is not an error,
// otherwise an *Error wrapping the sentinel matching resp.Err.Code.
func fromResponse(resp state.Response) error {
	if !resp.IsError() {
		return nil
	}
	switch resp.Err.Code {
	case 404:
		return &Error{Sentinel: ErrNotFound, Message: resp.Err.Message}
	case 409:
		return &Error{Sentinel: ErrConflict, Message: resp.Err.Message}
	default:
		return &Error{Sentinel: ErrInternal, Message: resp.Err.Message}
	}
}

func internalf(format string, args ...any) error {
	return &Error{Sentinel: ErrInternal, Message: fmt.Sprintf(format, args...)}
}
