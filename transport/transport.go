// Package transport declares the abstract descriptor-ring interface the
// gpu core consumes. The ring transport itself (virtqueue layout,
// notification doorbells, MSI-X interrupt routing) is an external
// collaborator: this package only describes the shape the core needs,
// modeled on the virtqueue-element view in vhost-user style backends.
package transport

// Segment is one contiguous host-accessible byte range belonging to a
// descriptor. Read segments are guest-supplied input; Write segments
// are where a handler must place its reply.
type Segment = []byte

// Chain is one descriptor chain fetched from a queue: an ordered list of
// read segments (request data) followed, per the wire format, by write
// segments (space for the reply). The two are kept separate because the
// transport tags each descriptor read-only or write-only; core code
// never has to guess from position alone.
type Chain struct {
	Read  []Segment
	Write []Segment
}

// NumRead and NumWrite report segment counts; handlers bounds-check
// before indexing so a short chain fails cleanly instead of panicking.
func (c *Chain) NumRead() int  { return len(c.Read) }
func (c *Chain) NumWrite() int { return len(c.Write) }

// ReadLen returns the total number of request bytes across all read
// segments.
func (c *Chain) ReadLen() int {
	n := 0
	for _, s := range c.Read {
		n += len(s)
	}
	return n
}

// Queue is the per-virtqueue interface the Pump (gpu.Pump) drives. It
// mirrors get-chain / release-chain / end-chains from the split-driver
// transport, but says nothing about how chains are mapped from guest
// memory or how notifications are delivered — that's the transport's
// job, not the core's.
type Queue interface {
	// HasChains reports whether the queue currently has any
	// available (not yet fetched) descriptor chains.
	HasChains() bool

	// GetChain fetches the next available chain, bounded to at most
	// maxSegs total segments. ok is false if the queue was empty;
	// err is non-nil for a malformed chain (too few segments, first
	// segment undersized) that the transport was able to detect.
	GetChain(maxSegs int) (id uint16, chain *Chain, ok bool, err error)

	// ReleaseChain returns the chain identified by id to the guest,
	// reporting the number of bytes written into its Write segments.
	// written may be 0 for a chain the core declined to process (see
	// the malformed-chain recovery policy on gpu.Pump).
	ReleaseChain(id uint16, written int)

	// EndChains signals the queue so the guest may be interrupted,
	// once a drain pass is complete. interrupt mirrors the
	// transport's end-chains(interrupt=true) call.
	EndChains(interrupt bool)
}
