package gpu

// Wire format for the 2D subset of the virtio-gpu control queue protocol.
// All structs here are laid out to match the 24-byte-header, little-endian
// wire format described by the device specification; on the little-endian
// hosts this core targets the Go field layout below is byte-for-byte
// compatible with the C ABI, so handlers can overlay these types directly
// on the byte segments a Chain hands them instead of hand-rolling a
// decoder for every command.

// Command types (2d subset + the two cursor commands, which are accepted
// but never implemented — see Pump).
const (
	CmdGetDisplayInfo        = 0x0100
	CmdResourceCreate2D      = 0x0101
	CmdResourceUnref         = 0x0102
	CmdSetScanout            = 0x0103
	CmdResourceFlush         = 0x0104
	CmdTransferToHost2D      = 0x0105
	CmdResourceAttachBacking = 0x0106
	CmdResourceDetachBacking = 0x0107
	CmdGetCapsetInfo         = 0x0108
	CmdGetCapset             = 0x0109
	CmdGetEdid               = 0x010a

	CmdUpdateCursor = 0x0300
	CmdMoveCursor   = 0x0301
)

// Response types.
const (
	RespOkNodata      = 0x1100
	RespOkDisplayInfo = 0x1101
	RespOkCapsetInfo  = 0x1102
	RespOkCapset      = 0x1103
	RespOkEdid        = 0x1104

	RespErrUnspec            = 0x1200
	RespErrOutOfMemory       = 0x1201
	RespErrInvalidScanoutID  = 0x1202
	RespErrInvalidResourceID = 0x1203
	RespErrInvalidContextID  = 0x1204
	RespErrInvalidParameter  = 0x1205
)

// FlagFence marks a request that wants its fence_id echoed in the reply.
const FlagFence = 1 << 0

// MaxScanouts is the wire-format array size for display-info replies. The
// device itself only ever advertises one enabled scanout (config register
// num_scanouts == 1); the remaining slots are always reported disabled,
// exactly as the spec requires.
const MaxScanouts = 16

// HeaderSize is the fixed size of Header, and therefore the minimum size
// of the first segment of any command chain.
const HeaderSize = 24

// Header is the common 24-byte command/response header every chain
// carries in its first read segment (for commands) or writes into its
// last write segment (for responses).
type Header struct {
	Type    uint32
	Flags   uint32
	FenceID uint64
	CtxID   uint32
	RingIdx uint8
	_       [3]uint8
}

// HasFence reports whether the guest asked for fence_id to be echoed.
func (h *Header) HasFence() bool { return h.Flags&FlagFence != 0 }

// Rect is a guest-submitted rectangle, validated against a resource's
// dimensions per invariant 3.
type Rect struct {
	X, Y, Width, Height uint32
}

// fits reports whether the rectangle lies within a W×H resource, per
// invariant 3 of the data model: x<=W, y<=H, w<=W, h<=H, x+w<=W, y+h<=H.
func (r Rect) fits(w, h uint32) bool {
	return r.X <= w && r.Y <= h && r.Width <= w && r.Height <= h &&
		r.X+r.Width <= w && r.Y+r.Height <= h
}

// ResourceCreate2DReq is the CREATE_2D request payload (segment 0, after
// the header).
type ResourceCreate2DReq struct {
	Hdr        Header
	ResourceID uint32
	Format     uint32
	Width      uint32
	Height     uint32
}

// ResourceUnrefReq is the UNREF request payload.
type ResourceUnrefReq struct {
	Hdr        Header
	ResourceID uint32
	_          uint32
}

// MemEntry is one guest scatter-list entry, repeated nr_entries times
// after the ATTACH_BACKING fixed header.
type MemEntry struct {
	Addr   uint64
	Length uint32
	_      uint32
}

// ResourceAttachBackingReq is the fixed-size prefix of the
// ATTACH_BACKING request; the MemEntry array follows in later segments.
type ResourceAttachBackingReq struct {
	Hdr        Header
	ResourceID uint32
	NrEntries  uint32
}

// ResourceDetachBackingReq is the DETACH_BACKING request payload.
type ResourceDetachBackingReq struct {
	Hdr        Header
	ResourceID uint32
	_          uint32
}

// SetScanoutReq is the SET_SCANOUT request payload.
type SetScanoutReq struct {
	Hdr        Header
	Rect       Rect
	ScanoutID  uint32
	ResourceID uint32
}

// TransferToHost2DReq is the TRANSFER_TO_HOST_2D request payload.
type TransferToHost2DReq struct {
	Hdr        Header
	Rect       Rect
	Offset     uint64
	ResourceID uint32
	_          uint32
}

// ResourceFlushReq is the RESOURCE_FLUSH request payload.
type ResourceFlushReq struct {
	Hdr        Header
	Rect       Rect
	ResourceID uint32
	_          uint32
}

// GetEdidReq is the GET_EDID request payload.
type GetEdidReq struct {
	Hdr     Header
	Scanout uint32
	_       uint32
}

// RespEdid is the GET_EDID reply: a 128-byte EDID block padded out to the
// wire format's fixed 1024-byte array.
type RespEdid struct {
	Hdr  Header
	Size uint32
	_    uint32
	Edid [1024]byte
}

// DisplayOne is one entry of RespDisplayInfo.Modes.
type DisplayOne struct {
	R       Rect
	Enabled uint32
	Flags   uint32
}

// RespDisplayInfo is the GET_DISPLAY_INFO reply.
type RespDisplayInfo struct {
	Hdr   Header
	Modes [MaxScanouts]DisplayOne
}

// Format is a guest-visible virtio-gpu pixel format code, valid in
// ResourceCreate2DReq.Format.
type Format uint32

const (
	FormatB8G8R8A8Unorm Format = 1
	FormatB8G8R8X8Unorm Format = 2
	FormatA8R8G8B8Unorm Format = 3
	FormatX8R8G8B8Unorm Format = 4
	FormatR8G8B8A8Unorm Format = 67
	FormatX8B8G8R8Unorm Format = 68
	FormatA8B8G8R8Unorm Format = 121
	FormatR8G8B8X8Unorm Format = 134
)
