package gpu

// Display is the external display backend the core publishes pixel
// buffers to. It is out of scope for this core (spec.md §1) — window or
// framebuffer publication, EDID provisioning, and bottom-half scheduling
// live on the other side of this interface — but the shape of the
// interface and its ref-counting contract are very much in scope (§4.4,
// §5, §9 note 2).
//
// Handlers must never hold the core's own resource-table lock while
// calling into Display: the original device model's recursive mutex is
// explicitly not held across vdpy_surface_set/vdpy_surface_update, and
// this core preserves that boundary.
type Display interface {
	// Info returns the current output rectangle, queried by
	// GET_DISPLAY_INFO.
	Info() DisplayInfo

	// EDID returns a 128-byte EDID block. Implementations may return
	// fewer than 128 bytes; the handler zero-pads the reply.
	EDID() []byte

	// SetSurface binds (or, with a nil surf, unbinds) the single
	// scanout's output surface. The Display takes ownership of
	// whatever ref-count bump the caller made before calling this
	// and is responsible for dropping it once the surface is no
	// longer needed.
	SetSurface(surf *Surface)

	// UpdateSurface flushes a region of the currently bound surface.
	// As with SetSurface, the caller bumps the ref before calling and
	// the Display drops it once consumed.
	UpdateSurface(surf *Surface)

	// SubmitBH schedules task to run on the display's bottom-half
	// worker. The Pump's control-queue drain runs entirely inside
	// tasks submitted this way, so that no command logic ever runs on
	// the notifying (vCPU) thread — see spec.md §5.
	SubmitBH(task func())
}

// DisplayInfo is the Display's current output geometry, as returned by
// GET_DISPLAY_INFO.
type DisplayInfo struct {
	XOffset uint32
	YOffset uint32
	Width   uint32
	Height  uint32
}

// SurfaceKind identifies the pixel-buffer representation a Surface
// carries. This core only ever produces pixman-style packed buffers.
type SurfaceKind uint8

const SurfaceKindPixman SurfaceKind = 0

// Surface is a description of a published pixel buffer, handed to the
// Display by SET_SCANOUT and RESOURCE_FLUSH. Pixels aliases the
// resource's PixelBuffer.Pix; the caller has already bumped the
// PixelBuffer's ref-count, and releaseFunc drops it again once the
// Display is done with the surface.
type Surface struct {
	Pixels []byte
	X, Y   uint32
	Width  uint32
	Height uint32
	Stride uint32
	Format HostFormat
	Kind   SurfaceKind

	releaseFunc func()
}

// Release drops the reference the handler bumped before publishing this
// surface. A Display implementation must call this exactly once, after
// it no longer needs Pixels — synchronously if it copies the data out
// immediately, or later if it retains the surface (e.g. until the next
// frame is composited).
func (s *Surface) Release() {
	if s != nil && s.releaseFunc != nil {
		s.releaseFunc()
	}
}
