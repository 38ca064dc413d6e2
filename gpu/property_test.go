package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

// TestPropertyRectFitsAgreesWithDefinition checks invariant 6 directly
// against the inequalities spec.md §3 defines fits by, rather than just
// against a handful of example rectangles.
func TestPropertyRectFitsAgreesWithDefinition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.Uint32Range(1, 64).Draw(t, "w")
		h := rapid.Uint32Range(1, 64).Draw(t, "h")
		r := Rect{
			X:      rapid.Uint32Range(0, 128).Draw(t, "x"),
			Y:      rapid.Uint32Range(0, 128).Draw(t, "y"),
			Width:  rapid.Uint32Range(0, 128).Draw(t, "rw"),
			Height: rapid.Uint32Range(0, 128).Draw(t, "rh"),
		}

		want := r.X <= w && r.Y <= h && r.Width <= w && r.Height <= h &&
			r.X+r.Width <= w && r.Y+r.Height <= h
		assert.Equal(t, want, r.fits(w, h))
	})
}

// TestPropertyUnrefAlwaysClearsLookup is invariant 1: after
// RESOURCE_UNREF(id), Find(id) never succeeds again, for any sequence of
// creates and unrefs over a small id space.
func TestPropertyUnrefAlwaysClearsLookup(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		disp := newFakeDisplay()
		mapper := newFakeMapper(4096)
		d, err := NewDevice(disp, mapper, nil)
		require.NoError(t, err)
		defer d.Close()

		ids := rapid.SliceOfN(rapid.Uint32Range(1, 8), 1, 20).Draw(t, "ids")
		for _, id := range ids {
			create := &ResourceCreate2DReq{ResourceID: id, Format: uint32(FormatB8G8R8A8Unorm), Width: 2, Height: 2}
			create.Hdr.Type = CmdResourceCreate2D
			_, _ = decodeAndDispatch(d, reqChain(create, 64))

			unref := &ResourceUnrefReq{ResourceID: id}
			unref.Hdr.Type = CmdResourceUnref
			_, _ = decodeAndDispatch(d, reqChain(unref, 64))

			_, ok := d.resources.Find(id)
			assert.False(t, ok)
		}
	})
}

// TestPropertyResetAlwaysEmptiesTable is invariant 2's table half: after
// any sequence of creates, Reset leaves the table empty.
func TestPropertyResetAlwaysEmptiesTable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		disp := newFakeDisplay()
		mapper := newFakeMapper(4096)
		d, err := NewDevice(disp, mapper, nil)
		require.NoError(t, err)
		defer d.Close()

		ids := rapid.SliceOfN(rapid.Uint32Range(1, 32), 0, 10).Draw(t, "ids")
		for _, id := range ids {
			create := &ResourceCreate2DReq{ResourceID: id, Format: uint32(FormatB8G8R8A8Unorm), Width: 2, Height: 2}
			create.Hdr.Type = CmdResourceCreate2D
			_, _ = decodeAndDispatch(d, reqChain(create, 64))
		}

		d.Reset()
		assert.Equal(t, 0, d.resources.Len())
	})
}

// TestPropertyFenceAlwaysEchoed is invariant 3: whenever the fence flag
// is set on a request, it comes back set with the same fence_id,
// regardless of which command carried it.
func TestPropertyFenceAlwaysEchoed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		disp := newFakeDisplay()
		mapper := newFakeMapper(4096)
		d, err := NewDevice(disp, mapper, nil)
		require.NoError(t, err)
		defer d.Close()

		fenceID := rapid.Uint64().Draw(t, "fence")
		cmd := rapid.SampledFrom([]uint32{
			CmdGetDisplayInfo, CmdGetEdid, CmdResourceUnref, CmdUpdateCursor, 0xDEAD,
		}).Draw(t, "cmd")

		var req Header
		req.Type = cmd
		req.Flags = FlagFence
		req.FenceID = fenceID

		// A fixed 64-byte read segment is large enough to satisfy every
		// fixed request struct this core defines, regardless of which
		// command cmd happens to be — only Header's fields are ever set.
		buf := make([]byte, 64)
		copy(buf, structBytes(&req))
		chain := &transport.Chain{
			Read:  []transport.Segment{buf},
			Write: []transport.Segment{make([]byte, 2048)},
		}
		_, err = decodeAndDispatch(d, chain)
		require.NoError(t, err)

		resp := replyHeader(chain)
		assert.True(t, resp.HasFence())
		assert.Equal(t, fenceID, resp.FenceID)
	})
}
