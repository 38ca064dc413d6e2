package gpu

import "github.com/vmm-gpu/virtio-gpu-core/transport"

// cmdSetScanout implements SET_SCANOUT (spec.md §4.4.7).
func cmdSetScanout(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[SetScanoutReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	resource, ok := d.resources.Find(req.ResourceID)
	switch {
	case req.ResourceID == 0 || !ok:
		d.display.SetSurface(nil)
		resp.Type = RespOkNodata
	case !req.Rect.fits(resource.Width, resource.Height):
		resp.Type = RespErrInvalidParameter
	default:
		img := resource.image
		img.ref()
		d.display.SetSurface(&Surface{
			Pixels:      img.Pix,
			Width:       resource.Width,
			Height:      resource.Height,
			Stride:      img.Stride,
			Format:      img.Format,
			Kind:        SurfaceKindPixman,
			releaseFunc: img.unref,
		})
		resp.Type = RespOkNodata
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// cmdResourceFlush implements RESOURCE_FLUSH (spec.md §4.4.9).
func cmdResourceFlush(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[ResourceFlushReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	resource, ok := d.resources.Find(req.ResourceID)
	if !ok {
		resp.Type = RespErrInvalidResourceID
	} else {
		img := resource.image
		img.ref()
		// The published rectangle covers the whole resource at the
		// request's (x, y) offset, not the request's width/height —
		// this matches the reference exactly (spec.md §4.4.9).
		d.display.UpdateSurface(&Surface{
			Pixels:      img.Pix,
			X:           req.Rect.X,
			Y:           req.Rect.Y,
			Width:       resource.Width,
			Height:      resource.Height,
			Stride:      img.Stride,
			Format:      img.Format,
			Kind:        SurfaceKindPixman,
			releaseFunc: img.unref,
		})
		resp.Type = RespOkNodata
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// cmdTransferToHost2D implements TRANSFER_TO_HOST_2D (spec.md §4.4.8).
func cmdTransferToHost2D(d *Device, chain *transport.Chain, hdr Header) (int, error) {
	req, err := readRequest[TransferToHost2DReq](chain)
	if err != nil {
		return 0, err
	}

	var resp Header
	resource, ok := d.resources.Find(req.ResourceID)
	switch {
	case !ok:
		resp.Type = RespErrInvalidResourceID
	case !req.Rect.fits(resource.Width, resource.Height):
		resp.Type = RespErrInvalidParameter
	default:
		transferRowsToHost(resource, req.Rect, req.Offset)
		resp.Type = RespOkNodata
	}

	applyFence(&resp, hdr)
	return writeReply(chain, &resp)
}

// transferRowsToHost performs the row-by-row guest-to-host pixel copy
// described by spec.md §4.4.8. For each destination row it walks the
// resource's backing vector in order, skipping zero-length or untranslatable
// elements, copying as many bytes as are available from the current
// element before moving to the next — a guest scatter list need not align
// with row boundaries at all.
func transferRowsToHost(r *Resource, rect Rect, offset uint64) {
	img := r.image
	stride := uint64(img.Stride)
	bpp := uint64(img.Format.BytesPerPixel())
	rowBytes := uint64(rect.Width) * bpp

	for h := uint64(0); h < uint64(rect.Height); h++ {
		srcOffset := offset + stride*h
		dstOffset := uint64(rect.Y)*stride + uint64(h)*stride + uint64(rect.X)*bpp
		var copied uint64

		for _, elem := range r.backing {
			if copied >= rowBytes {
				break
			}
			elemLen := uint64(len(elem))
			if elemLen == 0 {
				continue
			}
			if srcOffset >= elemLen {
				srcOffset -= elemLen
				continue
			}
			want := rowBytes - copied
			avail := elemLen - srcOffset
			n := want
			if avail < n {
				n = avail
			}
			copy(img.Pix[dstOffset+copied:dstOffset+copied+n], elem[srcOffset:srcOffset+n])
			srcOffset = 0
			copied += n
		}
	}
}
