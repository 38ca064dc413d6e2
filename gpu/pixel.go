package gpu

// HostFormat is the host-side pixel layout a guest Format maps to.
// Every layout this core supports is a 32-bit-per-pixel packed format;
// the name spells out the byte order in memory, low address first (so
// "x8r8g8b8" is X, R, G, B as four consecutive bytes, matching the
// pixman naming the original device model uses).
type HostFormat uint8

const (
	HostX8R8G8B8 HostFormat = iota
	HostA8R8G8B8
	HostB8G8R8X8
	HostB8G8R8A8
	HostX8B8G8R8
	HostA8B8G8R8
	HostR8G8B8X8
	HostR8G8B8A8
)

// BytesPerPixel is 4 for every host layout this device supports; all are
// packed 32-bit formats. Kept as a method rather than a constant so
// callers don't have to remember that invariant.
func (HostFormat) BytesPerPixel() uint32 { return 4 }

// guestToHost is the fixed guest→host format table from the device
// specification. A guest format absent from this table is unsupported:
// RESOURCE_CREATE_2D must fail such a request with ERR_UNSPEC.
var guestToHost = map[Format]HostFormat{
	FormatB8G8R8X8Unorm: HostX8R8G8B8,
	FormatB8G8R8A8Unorm: HostA8R8G8B8,
	FormatX8R8G8B8Unorm: HostB8G8R8X8,
	FormatA8R8G8B8Unorm: HostB8G8R8A8,
	FormatR8G8B8X8Unorm: HostX8B8G8R8,
	FormatR8G8B8A8Unorm: HostA8B8G8R8,
	FormatX8B8G8R8Unorm: HostR8G8B8X8,
	FormatA8B8G8R8Unorm: HostR8G8B8A8,
}

// hostFormatFor maps a guest format to its host layout. ok is false for any
// format outside the fixed eight-entry table.
func hostFormatFor(f Format) (HostFormat, bool) {
	hf, ok := guestToHost[f]
	return hf, ok
}

// PixelBuffer is a host-owned, reference-counted rectangular array of
// pixels backing a Resource. Stride is width * BytesPerPixel with no
// extra row padding; that keeps TRANSFER_TO_HOST_2D's row arithmetic
// (spec.md §4.4.8) exactly as specified.
type PixelBuffer struct {
	Format HostFormat
	Width  uint32
	Height uint32
	Stride uint32
	Pix    []byte

	refs int32
}

// newPixelBuffer allocates a zeroed pixel buffer, or returns nil if the
// dimensions are degenerate or the allocation would be larger than is
// sane for a 2D command (guarding against a guest asking for a
// multi-gigabyte resource). Handlers treat a nil return as
// ERR_OUT_OF_MEMORY, matching the reference's pixman_image_create_bits
// failure path.
func newPixelBuffer(hf HostFormat, width, height uint32) *PixelBuffer {
	if width == 0 || height == 0 {
		return nil
	}
	total := uint64(width) * uint64(hf.BytesPerPixel()) * uint64(height)
	const maxResourceBytes = 1 << 30 // 1 GiB guard against hostile dimensions
	if total == 0 || total > maxResourceBytes {
		return nil
	}
	stride := width * hf.BytesPerPixel()
	return &PixelBuffer{
		Format: hf,
		Width:  width,
		Height: height,
		Stride: stride,
		Pix:    make([]byte, total),
		refs:   1,
	}
}

// ref increments the buffer's reference count. Handlers call this before
// publishing a surface to the Display (invariant 4).
func (p *PixelBuffer) ref() {
	if p != nil {
		p.refs++
	}
}

// unref decrements the buffer's reference count. The Display calls this
// after it has consumed a published surface; RESOURCE_UNREF calls this
// once to drop the table's own reference.
func (p *PixelBuffer) unref() {
	if p == nil {
		return
	}
	p.refs--
}
