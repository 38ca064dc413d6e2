package gpu

import "github.com/vmm-gpu/virtio-gpu-core/transport"

// fakeDisplay, fakeMapper, and fakeQueue are in-package equivalents of
// internal/gpufake's test doubles. They live here rather than being
// imported from internal/gpufake because internal/gpufake imports this
// package (to reference gpu.Display, gpu.Surface, gpu.DisplayInfo by
// name) — an internal (whitebox) test file that pulled in gpufake would
// create an import cycle the "go test" tool refuses to build. Keeping a
// second, lighter set of fakes local to the package's own tests avoids
// that cycle; internal/gpufake remains the one non-test callers (like
// example/virtiogpu) use.

// fakeDisplay is an in-memory gpu.Display: SubmitBH runs its task
// synchronously, SetSurface records the currently bound surface, and
// UpdateSurface appends every flushed surface to Updates, so tests can assert on what was published and release the surface
// exactly the way a real backend must.
type fakeDisplay struct {
	DisplayInfo DisplayInfo
	EDIDBlock   []byte

	Bound    *Surface
	Updates  []Surface
	Unbinds  int
	BHCalls  int
	closeErr error
	closed   bool
}

// newFakeDisplay returns a fake Display reporting a fixed 1024x768 output.
func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		DisplayInfo: DisplayInfo{Width: 1024, Height: 768},
		EDIDBlock:   make([]byte, 128),
	}
}

func (d *fakeDisplay) Info() DisplayInfo { return d.DisplayInfo }
func (d *fakeDisplay) EDID() []byte      { return d.EDIDBlock }

func (d *fakeDisplay) SetSurface(surf *Surface) {
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

func (d *fakeDisplay) UpdateSurface(surf *Surface) {
	if surf == nil {
		return
	}
	d.Updates = append(d.Updates, *surf)
	surf.Release()
}

func (d *fakeDisplay) SubmitBH(task func()) {
	d.BHCalls++
	task()
}

// Close lets fakeDisplay satisfy the optional io.Closer Device.Close
// looks for, so tests can assert Close propagates to it.
func (d *fakeDisplay) Close() error {
	d.closed = true
	return d.closeErr
}

func (d *fakeDisplay) Closed() bool { return d.closed }

// fakeMapper is an in-memory transport.Mapper: guest addresses are just
// indexes into a backing arena, so tests can build ATTACH_BACKING
// scatter lists without simulating real guest memory.
type fakeMapper struct {
	arena []byte
}

// newFakeMapper returns a Mapper backed by an arena of the given size,
// so that addresses [0, size) all translate successfully.
func newFakeMapper(size int) *fakeMapper {
	return &fakeMapper{arena: make([]byte, size)}
}

// Arena exposes the backing slice so tests can seed guest data before
// issuing a TRANSFER_TO_HOST_2D.
func (m *fakeMapper) Arena() []byte { return m.arena }

func (m *fakeMapper) Translate(gpa uint64, length uint32) []byte {
	start := int(gpa)
	end := start + int(length)
	if start < 0 || end > len(m.arena) || end < start {
		return nil
	}
	return m.arena[start:end]
}

// fakeChainSpec is one chain queued for a fakeQueue to hand out. Release
// outcomes are recorded on the fakeQueue (Released, WrittenAt), not here.
type fakeChainSpec struct {
	id    uint16
	chain *transport.Chain
	err   error // simulates a transport-detected malformed chain
}

// fakeQueue is an in-memory transport.Queue: chains are enqueued ahead
// of time with Push/PushMalformed, then handed out in FIFO order by
// GetChain. Released/ended state is recorded for assertions.
type fakeQueue struct {
	pending []*fakeChainSpec
	nextID  uint16

	Released  []uint16
	WrittenAt map[uint16]int
	EndCalls  int
	LastKick  bool
}

// newFakeQueue returns an empty fake queue.
func newFakeQueue() *fakeQueue {
	return &fakeQueue{WrittenAt: make(map[uint16]int)}
}

// Push enqueues a well-formed chain and returns the id GetChain will
// hand out for it.
func (q *fakeQueue) Push(chain *transport.Chain) uint16 {
	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, &fakeChainSpec{id: id, chain: chain})
	return id
}

// PushMalformed enqueues a chain GetChain will report with a non-nil
// error, simulating a transport-level detection of a truncated or
// oversized descriptor chain.
func (q *fakeQueue) PushMalformed(err error) uint16 {
	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, &fakeChainSpec{id: id, err: err})
	return id
}

func (q *fakeQueue) HasChains() bool { return len(q.pending) > 0 }

func (q *fakeQueue) GetChain(maxSegs int) (uint16, *transport.Chain, bool, error) {
	if len(q.pending) == 0 {
		return 0, nil, false, nil
	}
	spec := q.pending[0]
	q.pending = q.pending[1:]
	if spec.err != nil {
		return spec.id, nil, true, spec.err
	}
	return spec.id, spec.chain, true, nil
}

func (q *fakeQueue) ReleaseChain(id uint16, written int) {
	q.Released = append(q.Released, id)
	q.WrittenAt[id] = written
}

func (q *fakeQueue) EndChains(interrupt bool) {
	q.EndCalls++
	q.LastKick = interrupt
}

// newFakeChain builds a transport.Chain with one zeroed read segment of
// readSize bytes and one write segment of writeSize bytes.
func newFakeChain(readSize, writeSize int) *transport.Chain {
	return &transport.Chain{
		Read:  []transport.Segment{make([]byte, readSize)},
		Write: []transport.Segment{make([]byte, writeSize)},
	}
}
