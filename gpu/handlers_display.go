package gpu

import "github.com/vmm-gpu/virtio-gpu-core/transport"

// cmdUnspec answers any command this core does not implement — unknown
// opcodes, both cursor-queue commands, and the capset/blob/UUID/context
// commands that are explicit Non-goals — with an all-zero header whose
// type is ERR_UNSPEC, still honoring fence propagation (spec.md §4.4.10).
func cmdUnspec(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	var resp Header
	resp.Type = RespErrUnspec
	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// cmdGetDisplayInfo implements GET_DISPLAY_INFO (spec.md §4.4.1): query
// the Display for its current rectangle, report it as the sole enabled
// mode, and leave every other scanout slot zeroed.
func cmdGetDisplayInfo(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	info := d.display.Info()

	var resp RespDisplayInfo
	resp.Hdr.Type = RespOkDisplayInfo
	applyFence(&resp.Hdr, hdr)
	resp.Modes[0] = DisplayOne{
		R: Rect{
			X:      info.XOffset,
			Y:      info.YOffset,
			Width:  info.Width,
			Height: info.Height,
		},
		Enabled: 1,
	}
	return writeReply(chain, &resp)
}

// cmdGetEdid implements GET_EDID (spec.md §4.4.2). The scanout index in
// the request is accepted without validation against num_scanouts — an
// open question the spec leaves to the implementer (spec.md §9); this
// core chooses not to validate it, matching the reference precisely,
// since the 2D core only ever has one scanout to describe regardless of
// what index the guest asks about.
func cmdGetEdid(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	var resp RespEdid
	resp.Hdr.Type = RespOkEdid
	applyFence(&resp.Hdr, hdr)
	resp.Size = 128

	edid := d.display.EDID()
	n := copy(resp.Edid[:resp.Size], edid)
	_ = n // remaining bytes of the 128-byte block, and the whole padding tail, stay zero

	return writeReply(chain, &resp)
}
