// Copyright 2026 mvirt authors.

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGetPutExhaustion(t *testing.T) {
	p := NewPool(2)
	assert.Equal(t, 2, p.Available())

	b1 := p.Get()
	require.NotNil(t, b1)
	b2 := p.Get()
	require.NotNil(t, b2)
	assert.Equal(t, 0, p.Available())

	assert.Nil(t, p.Get())

	p.Put(b1)
	assert.Equal(t, 1, p.Available())
}

func TestPrependExposesHeadroomWithoutCopy(t *testing.T) {
	b := newBuffer()
	b.Data = append(b.Data, []byte("payload")...)

	eth := b.Prepend(EthHeadroom)
	copy(eth, make([]byte, EthHeadroom))
	assert.Len(t, b.Data, EthHeadroom+len("payload"))
	assert.Equal(t, "payload", string(b.Data[EthHeadroom:]))

	virtio := b.Prepend(VirtioHdrSize)
	assert.Len(t, virtio, VirtioHdrSize)
	assert.Len(t, b.Data, VirtioHdrSize+EthHeadroom+len("payload"))
}

func TestPrependPanicsBeyondHeadroom(t *testing.T) {
	b := newBuffer()
	assert.Panics(t, func() {
		b.Prepend(Headroom + 1)
	})
}
