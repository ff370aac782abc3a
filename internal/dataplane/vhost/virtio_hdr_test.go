// Copyright 2026 mvirt authors.

package vhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetHeaderMarshalRoundTrip(t *testing.T) {
	h := NetHeader{
		Flags: FlagsNeedsCsum, GSOType: GSOTCPv4, HdrLen: 66,
		GSOSize: 1460, CSumStart: 48, CSumOffset: 16, NumBuffers: 1,
	}
	buf := make([]byte, HdrSize)
	h.Marshal(buf)

	got := ParseNetHeader(buf)
	assert.Equal(t, h, got)
}

func TestAdjustForEthernetStripAndPrepend(t *testing.T) {
	h := NetHeader{Flags: FlagsNeedsCsum, GSOType: GSOTCPv4, HdrLen: 66, CSumStart: 48}
	orig := h

	h.AdjustForEthernetStrip(14)
	assert.EqualValues(t, 34, h.CSumStart)
	assert.EqualValues(t, 52, h.HdrLen)

	h.AdjustForEthernetPrepend(14)
	assert.Equal(t, orig, h)
}
