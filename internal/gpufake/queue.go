// Package gpufake provides in-memory test doubles for the transport and
// display collaborators the gpu package depends on through interfaces,
// in the spirit of the small hand-rolled fakes the teacher's own
// virtqueue tests build rather than a mocking framework.
package gpufake

import "github.com/vmm-gpu/virtio-gpu-core/transport"

// chainSpec is one chain queued for a Queue to hand out. ReleaseChain
// records release outcomes on the Queue (Released, WrittenAt); the
// written and release fields here are never filled in.
type chainSpec struct {
	id      uint16
	chain   *transport.Chain
	err     error // simulates a transport-detected malformed chain
	written int
	release bool
}

// Queue is an in-memory transport.Queue: chains are enqueued ahead of
// time with Push/PushMalformed, then handed out in FIFO order by
// GetChain. Released/ended state is recorded for assertions.
type Queue struct {
	pending []*chainSpec
	nextID  uint16

	Released  []uint16
	WrittenAt map[uint16]int
	EndCalls  int
	LastKick  bool
}

// NewQueue returns an empty fake queue.
func NewQueue() *Queue {
	return &Queue{WrittenAt: make(map[uint16]int)}
}

// Push enqueues a well-formed chain and returns the id GetChain will
// hand out for it.
func (q *Queue) Push(chain *transport.Chain) uint16 {
	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, &chainSpec{id: id, chain: chain})
	return id
}

// PushMalformed enqueues a chain GetChain will report with a non-nil
// error, simulating a transport-level detection of a truncated or
// oversized descriptor chain.
func (q *Queue) PushMalformed(err error) uint16 {
	id := q.nextID
	q.nextID++
	q.pending = append(q.pending, &chainSpec{id: id, err: err})
	return id
}

func (q *Queue) HasChains() bool { return len(q.pending) > 0 }

func (q *Queue) GetChain(maxSegs int) (uint16, *transport.Chain, bool, error) {
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

func (q *Queue) ReleaseChain(id uint16, written int) {
	q.Released = append(q.Released, id)
	q.WrittenAt[id] = written
}

func (q *Queue) EndChains(interrupt bool) {
	q.EndCalls++
	q.LastKick = interrupt
}

// NewChain builds a transport.Chain with one zeroed read segment of
// readSize bytes and one write segment of writeSize bytes.
func NewChain(readSize, writeSize int) *transport.Chain {
	return &transport.Chain{
		Read:  []transport.Segment{make([]byte, readSize)},
		Write: []transport.Segment{make([]byte, writeSize)},
	}
}
