// Copyright 2026 mvirt authors.

// Package replog is the replication engine: it wraps hashicorp/raft
// behind a small synchronous API (WriteOrForward, GetState,
// GetMembership, CreateJoinToken/RemoveNode) so that the Store Facade
// never talks to raft.Raft directly.
package replog

import (
	"bytes"
	"encoding/gob"

	"github.com/MalteJ/mvirt-sub000/internal/state"
)

// encodeCommand serializes a state.Command for the replicated log.
// encoding/gob's struct encoding is deterministic for a fixed Go type
// with fixed field order, which is why the command shape is a struct
// of optional payload pointers rather than an interface.
func encodeCommand(cmd state.Command) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cmd); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCommand(data []byte) (state.Command, error) {
	var cmd state.Command
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cmd); err != nil {
		return state.Command{}, err
	}
	return cmd, nil
}
