// Copyright 2026 mvirt authors.

package vhost

// Request is the vhost-user message type (front-end request codes),
// scoped to what a backend serving a single virtio-net device needs to
// answer.
type Request uint32

const (
	ReqGetFeatures        Request = 1
	ReqSetFeatures        Request = 2
	ReqSetOwner           Request = 3
	ReqResetOwner         Request = 4
	ReqSetMemTable        Request = 5
	ReqSetVringNum        Request = 8
	ReqSetVringAddr       Request = 9
	ReqSetVringBase       Request = 10
	ReqGetVringBase       Request = 11
	ReqSetVringKick       Request = 12
	ReqSetVringCall       Request = 13
	ReqSetVringErr        Request = 14
	ReqGetProtocolFeature Request = 15
	ReqSetProtocolFeature Request = 16
	ReqGetQueueNum        Request = 17
	ReqSetVringEnable     Request = 18
)

// Feature bits required: mergeable RX buffers, event_idx (both
// directions), a virtio-net header with num_buffers, GSO
// (TSO4/TSO6/UFO), and checksum offload.
const (
	FeatureMrgRxBuf   uint64 = 1 << 15
	FeatureEventIdx   uint64 = 1 << 29
	FeatureCsum       uint64 = 1 << 0
	FeatureGuestCsum  uint64 = 1 << 1
	FeatureHostTSO4   uint64 = 1 << 11
	FeatureHostTSO6   uint64 = 1 << 12
	FeatureHostUFO    uint64 = 1 << 14
	FeatureGuestTSO4  uint64 = 1 << 7
	FeatureGuestTSO6  uint64 = 1 << 8
	FeatureGuestUFO   uint64 = 1 << 10
	FeatureVersion1   uint64 = 1 << 32
	ProtocolFeatureMQ uint64 = 1 << 0
)

// RequiredFeatures is the OR of every bit required for a virtio-net
// backend.
const RequiredFeatures = FeatureMrgRxBuf | FeatureEventIdx | FeatureCsum |
	FeatureGuestCsum | FeatureHostTSO4 | FeatureHostTSO6 | FeatureHostUFO |
	FeatureGuestTSO4 | FeatureGuestTSO6 | FeatureGuestUFO | FeatureVersion1

// header is the fixed 12-byte vhost-user message header preceding every
// request/reply payload: a length-prefixed binary frame over a Unix
// socket.
type header struct {
	Request Request
	Flags   uint32
	Size    uint32
}

const headerSize = 12

const (
	flagReply   uint32 = 1 << 2
	flagVersion uint32 = 1
)

// MemoryRegion describes one guest memory region handed over during
// SET_MEM_TABLE, along with the fd it arrived on.
type MemoryRegion struct {
	GuestAddr     uint64
	Size          uint64
	UserAddr      uint64
	MmapOffset    uint64
	FD            int
	MappedAddr    uintptr
	MappedSize    int
}

// VringState is the per-virtqueue geometry negotiated via
// SET_VRING_NUM/ADDR/BASE. Index 0 is RX, index 1 is TX.
type VringState struct {
	Num         uint32
	DescAddr    uint64
	UsedAddr    uint64
	AvailAddr   uint64
	Base        uint32
	KickFD      int
	CallFD      int
	ErrFD       int
	Enabled     bool
}
