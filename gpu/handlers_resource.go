package gpu

import (
	"errors"
	"unsafe"

	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

// cmdResourceCreate2D implements RESOURCE_CREATE_2D (spec.md §4.4.3).
func cmdResourceCreate2D(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[ResourceCreate2DReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	switch {
	case req.ResourceID == 0:
		resp.Type = RespErrInvalidResourceID
	default:
		if _, exists := d.resources.Find(req.ResourceID); exists {
			resp.Type = RespErrInvalidResourceID
			break
		}
		hf, ok := hostFormatFor(Format(req.Format))
		if !ok {
			// Unsupported format: matches the reference, where an
			// unmapped pixman format code (0) is handed straight to
			// pixman_image_create_bits and fails allocation.
			resp.Type = RespErrUnspec
			break
		}
		img := newPixelBuffer(hf, req.Width, req.Height)
		if img == nil {
			d.tracef("gpu: pixel buffer allocation failed for resource %d (%dx%d)", req.ResourceID, req.Width, req.Height)
			resp.Type = RespErrOutOfMemory
			break
		}
		d.resources.Insert(&Resource{
			ID:     req.ResourceID,
			Width:  req.Width,
			Height: req.Height,
			Format: Format(req.Format),
			image:  img,
		})
		resp.Type = RespOkNodata
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// cmdResourceUnref implements RESOURCE_UNREF (spec.md §4.4.4).
func cmdResourceUnref(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[ResourceUnrefReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	if _, ok := d.resources.Find(req.ResourceID); ok {
		d.resources.Remove(req.ResourceID)
		resp.Type = RespOkNodata
	} else {
		resp.Type = RespErrInvalidResourceID
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// memEntrySize is the wire size of one MemEntry (addr + length + padding).
const memEntrySize = int(unsafe.Sizeof(MemEntry{}))

// readMemEntries reassembles the nr_entries array of MemEntry structs
// that ATTACH_BACKING spreads across however many read segments follow
// the fixed request header (spec.md §4.4.5: "segments [1..n-1] are
// contiguous request bytes").
func readMemEntries(chain *transport.Chain, n uint32) ([]MemEntry, error) {
	need := int(n) * memEntrySize
	buf := make([]byte, 0, need)
	for _, seg := range chain.Read[1:] {
		buf = append(buf, seg...)
		if len(buf) >= need {
			break
		}
	}
	if len(buf) < need {
		return nil, errTruncatedEntries
	}
	entries := make([]MemEntry, n)
	for i := range entries {
		off := i * memEntrySize
		entries[i] = *(*MemEntry)(unsafe.Pointer(&buf[off]))
	}
	return entries, nil
}

var errTruncatedEntries = errors.New("gpu: attach_backing entry array truncated")

// cmdResourceAttachBacking implements RESOURCE_ATTACH_BACKING
// (spec.md §4.4.5). Unlike the reference — which sets
// ERR_INVALID_RESOURCE_ID on the unknown-id path but then overwrites it
// with OK_NODATA before the reply is written (§9 note 2) — this
// implementation surfaces the error, per the spec's explicit guidance.
func cmdResourceAttachBacking(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[ResourceAttachBackingReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	resource, ok := d.resources.Find(req.ResourceID)
	if !ok {
		resp.Type = RespErrInvalidResourceID
	} else {
		entries, merr := readMemEntries(chain, req.NrEntries)
		if merr != nil {
			resp.Type = RespErrUnspec
		} else {
			backing := make([][]byte, len(entries))
			for i, e := range entries {
				backing[i] = d.mapper.Translate(e.Addr, e.Length)
			}
			resource.backing = backing
			resp.Type = RespOkNodata
		}
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// cmdResourceDetachBacking implements RESOURCE_DETACH_BACKING
// (spec.md §4.4.6): reply is unconditionally OK_NODATA, even if the
// resource id is unknown — the reference does not surface that as an
// error here, and this core matches it.
func cmdResourceDetachBacking(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[ResourceDetachBackingReq](chain)
	if err != nil {
		return 0, err
	}

	if resource, ok := d.resources.Find(req.ResourceID); ok && resource.hasBacking() {
		resource.detach()
	}

	var resp Header
	resp.Type = RespOkNodata
	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}
