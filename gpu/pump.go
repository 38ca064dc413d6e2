package gpu

import (
	"golang.org/x/sync/errgroup"

	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

// maxChainSegs bounds how many descriptors a single chain may span,
// matching the wire limit spec.md §4.5/§6 fixes independently of the
// ring size (64): a guest is free to submit an ATTACH_BACKING scatter
// list spanning up to this many segments.
const maxChainSegs = 256

// Pump is the Queue Pump (C5): it drains the control queue and the
// cursor queue, decoding and dispatching each chain it fetches. Per
// spec.md §5, control-queue work always runs inside a task submitted to
// the Display's bottom half, never directly on the thread that observed
// the notification; the cursor queue is drained inline, since every
// command on it resolves to cmdUnspec and never touches the resource
// table or the Display (an Open Question resolved in SPEC_FULL.md: the
// cursor queue is advertised and drained, not left unconsumed).
type Pump struct {
	device  *Device
	control transport.Queue
	cursor  transport.Queue
}

// NewPump builds a Pump over an already-constructed Device and its two
// queues. cursor may be nil if the transport does not expose a cursor
// virtqueue at all; Pump then only drains control.
func NewPump(device *Device, control, cursor transport.Queue) *Pump {
	return &Pump{device: device, control: control, cursor: cursor}
}

// NotifyControl drains every chain currently available on the control
// queue. It is the handler a transport calls when the guest kicks the
// control queue's doorbell; per spec.md §5 the actual decode/dispatch
// work is handed to Display.SubmitBH so this never runs command logic on
// the calling goroutine.
func (p *Pump) NotifyControl() {
	if !p.control.HasChains() {
		return
	}
	p.device.display.SubmitBH(func() {
		p.drain(p.control)
	})
}

// NotifyCursor drains the cursor queue inline, matching the reference's
// virtio_gpu_notify_cursorq, which does not go through the bottom half:
// cursor commands are cheap enough, and universally resolved to
// cmdUnspec by this core, that there is nothing to protect by deferring
// them.
func (p *Pump) NotifyCursor() {
	if p.cursor == nil {
		return
	}
	p.drain(p.cursor)
}

// drain fetches and processes every chain currently available on q, then
// signals end-chains once. A malformed chain — one GetChain itself
// flags, or one decodeAndDispatch rejects because the header or reply
// segment is undersized — is released with zero bytes written and
// logged, rather than stalling the queue or tearing down the device
// (spec.md §9 note 4: the reference's recovery path leaves the queue
// wedged on a malformed chain; this core always makes forward progress).
func (p *Pump) drain(q transport.Queue) {
	processed := 0
	for {
		id, chain, ok, err := q.GetChain(maxChainSegs)
		if !ok {
			break
		}
		if err != nil {
			p.device.tracef("gpu: dropping malformed chain %d: %v", id, err)
			q.ReleaseChain(id, 0)
			processed++
			continue
		}

		n, derr := decodeAndDispatch(p.device, chain)
		if derr != nil {
			p.device.tracef("gpu: dropping malformed chain %d: %v", id, derr)
			q.ReleaseChain(id, 0)
			processed++
			continue
		}

		q.ReleaseChain(id, n)
		processed++
	}
	if processed > 0 {
		q.EndChains(true)
	}
}

// Run drives both queues until ctx-equivalent shutdown: it blocks
// draining control and cursor notifications delivered through the
// supplied channels until both are closed, supervising the two
// goroutines with an errgroup the way the teacher's test harnesses
// supervise concurrent workers. Most embedders instead call
// NotifyControl/NotifyCursor directly from their own transport
// callbacks; Run exists for a transport that prefers to hand the Pump
// ownership of its own goroutines.
func (p *Pump) Run(controlKicks, cursorKicks <-chan struct{}) error {
	var g errgroup.Group
	g.Go(func() error {
		for range controlKicks {
			p.NotifyControl()
		}
		return nil
	})
	g.Go(func() error {
		for range cursorKicks {
			p.NotifyCursor()
		}
		return nil
	})
	return g.Wait()
}
