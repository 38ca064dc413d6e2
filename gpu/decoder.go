package gpu

import (
	"fmt"
	"unsafe"

	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

// decodeHeader parses the common 24-byte header out of a chain's first
// read segment, per the Command Decoder contract in spec.md §4.3: the
// first segment must be at least HeaderSize bytes, and the chain must
// have somewhere to write a reply. Either failure is a malformed chain,
// handled by Pump per §9 note 4 rather than by a wire-visible error
// response (there is nowhere safe to write one).
func decodeHeader(chain *transport.Chain) (Header, error) {
	if len(chain.Read) == 0 || len(chain.Read[0]) < HeaderSize {
		return Header{}, fmt.Errorf("gpu: missing or undersized command header")
	}
	if len(chain.Write) == 0 {
		return Header{}, fmt.Errorf("gpu: command chain has no reply segment")
	}
	b := chain.Read[0][:HeaderSize]
	return *(*Header)(unsafe.Pointer(&b[0])), nil
}

// structBytes views v's in-memory representation as a byte slice, the
// generic form of the unsafe.Pointer casts the transport layer uses to
// overlay wire types directly on mapped guest memory.
func structBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// readRequest overlays T (a fixed-size request struct starting with
// Header) directly on the chain's first read segment. It fails if that
// segment is smaller than T, which — since every fixed request is no
// bigger than HeaderSize plus a handful of uint32s — only happens on a
// chain the guest truncated below what its own command type requires.
func readRequest[T any](chain *transport.Chain) (*T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(chain.Read[0]) < size {
		return nil, fmt.Errorf("gpu: request segment too small: have %d want %d", len(chain.Read[0]), size)
	}
	return (*T)(unsafe.Pointer(&chain.Read[0][0])), nil
}

// writeReply copies resp's wire representation into the chain's reply
// segment (the last Write segment, per spec.md §4.3) and returns the
// number of bytes written. It fails only when the transport handed us a
// reply segment too small to hold the response type — a malformed
// chain, not a command-level error.
func writeReply[T any](chain *transport.Chain, resp *T) (int, error) {
	b := structBytes(resp)
	last := chain.Write[len(chain.Write)-1]
	if len(last) < len(b) {
		return 0, fmt.Errorf("gpu: reply segment too small: have %d want %d", len(last), len(b))
	}
	copy(last, b)
	return len(b), nil
}

// applyFence implements the fence-echo epilogue every handler shares
// (spec.md §4.4): if the request asked for a fence, the reply carries
// the same fence_id and the fence flag.
func applyFence(resp *Header, req Header) {
	if req.HasFence() {
		resp.Flags |= FlagFence
		resp.FenceID = req.FenceID
	}
}

// handlerFunc is the shape every command handler takes: given the
// decoded header and the chain it arrived on, do the work and write a
// reply, returning the reply length. Business-level failures (unknown
// resource, bad rectangle, OOM) are not Go errors — they are response
// codes written into the reply exactly like successes. A returned error
// here always means the chain itself was unusable.
type handlerFunc func(d *Device, chain *transport.Chain, hdr Header) (int, error)

// dispatch is the Command Decoder's opcode table (spec.md §4.3): one
// entry per supported command type, with unknown types and every
// not-implemented command (cursor queue, capsets, blob/UUID/context
// commands — all explicit Non-goals) falling through to cmdUnspec.
var dispatch = map[uint32]handlerFunc{
	CmdGetDisplayInfo:        cmdGetDisplayInfo,
	CmdGetEdid:               cmdGetEdid,
	CmdResourceCreate2D:      cmdResourceCreate2D,
	CmdResourceUnref:         cmdResourceUnref,
	CmdResourceAttachBacking: cmdResourceAttachBacking,
	CmdResourceDetachBacking: cmdResourceDetachBacking,
	CmdSetScanout:            cmdSetScanout,
	CmdTransferToHost2D:      cmdTransferToHost2D,
	CmdResourceFlush:         cmdResourceFlush,
}

// decodeAndDispatch is the Command Decoder's entry point (C3): parse the
// header, pick a handler (unspec for anything not in the table — unknown
// opcodes, and every cursor-queue/capset/blob command this core declines
// to implement), and run it.
func decodeAndDispatch(d *Device, chain *transport.Chain) (int, error) {
	hdr, err := decodeHeader(chain)
	if err != nil {
		return 0, err
	}
	h := dispatch[hdr.Type]
	if h == nil {
		h = cmdUnspec
	}
	return h(d, chain, hdr)
}
