package gpufake

import "github.com/vmm-gpu/virtio-gpu-core/gpu"

// Display is an in-memory gpu.Display: SubmitBH runs its task
// synchronously (no real bottom half), SetSurface records the currently
// bound surface, and UpdateSurface appends every flushed surface to
// Updates, so tests can assert on what was published and
// release the surface exactly the way a real backend must.
type Display struct {
	DisplayInfo gpu.DisplayInfo
	EDIDBlock   []byte

	Bound    *gpu.Surface
	Updates  []gpu.Surface
	Unbinds  int
	BHCalls  int
	closeErr error
	closed   bool
}

// NewDisplay returns a fake Display reporting a fixed 1024x768 output.
func NewDisplay() *Display {
	return &Display{
		DisplayInfo: gpu.DisplayInfo{Width: 1024, Height: 768},
		EDIDBlock:   make([]byte, 128),
	}
}

func (d *Display) Info() gpu.DisplayInfo { return d.DisplayInfo }
func (d *Display) EDID() []byte          { return d.EDIDBlock }

func (d *Display) SetSurface(surf *gpu.Surface) {
	if d.Bound != nil {
		d.Bound.Release()
	}
	if surf == nil {
		d.Unbinds++
		d.Bound = nil
		return
	}
	d.Bound = surf
}

func (d *Display) UpdateSurface(surf *gpu.Surface) {
	if surf == nil {
		return
	}
	d.Updates = append(d.Updates, *surf)
	surf.Release()
}

func (d *Display) SubmitBH(task func()) {
	d.BHCalls++
	task()
}

// Close lets Display satisfy the optional io.Closer the core looks for
// during teardown, so tests can assert Close propagates to it.
func (d *Display) Close() error {
	d.closed = true
	return d.closeErr
}

func (d *Display) Closed() bool { return d.closed }
