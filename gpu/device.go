package gpu

import (
	"errors"
	"sync"

	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

// Fixed config-space values this core advertises. There is only ever one
// scanout and no 3D capability sets (spec.md §1, Non-goals).
const (
	numScanouts = 1
	numCapsets  = 0
)

// configRegisters mirrors the virtio-gpu config space fields this core
// actually models (spec.md §6). num_scanouts and num_capsets are
// constants, not state, so they are not stored here.
type configRegisters struct {
	eventsRead  uint32
	eventsClear uint32
}

// Identity is the fixed PCI identity a virtio-gpu function advertises:
// vendor/device IDs and the virtio subsystem device type. PCI bus
// modeling itself is out of scope for this core (spec.md §1); Identity
// exists only so that whatever external PCI glue the embedder supplies
// has a single, correct source for these values instead of re-deriving
// them from the virtio spec by hand.
type Identity struct {
	VendorID       uint16
	DeviceID       uint16
	SubsystemID    uint16
	SubsystemClass uint8
}

// DeviceIdentity is the virtio-gpu PCI identity, per the virtio 1.x
// transitional device ID range (0x1040 + virtio subsystem device id 16).
var DeviceIdentity = Identity{
	VendorID:       0x1af4,
	DeviceID:       0x1050,
	SubsystemID:    16,
	SubsystemClass: 0x03, // display controller
}

// Options configures a Device. A zero Options is valid: debug tracing
// off, diagnostics going to the standard library's default logger.
type Options struct {
	Debug  bool
	Logger Logger
}

// Device is the command-processing core (components C1–C4): a resource
// table, a bound Display, and a guest-memory Mapper, reached through the
// config-space accessors and the per-command handlers decoder.go wires
// up. Pump (C5) is the only caller of the decode/dispatch path; the
// config-space accessors are for the transport. Device itself does not
// read queues.
//
// Only one Device may exist per process, mirroring the singleton device
// model the reference implementation enforces (spec.md, Supplemented
// Features): a VMM hosts exactly one virtio-gpu PCI function, and a
// second NewDevice call is a configuration error, not a resource to
// share.
type Device struct {
	mu        sync.Mutex // guards config, and resources during Reset/Close (handlers use resources without it); never held across Display calls
	resources *ResourceTable
	display   Display
	mapper    transport.Mapper

	logger Logger
	debug  bool

	config configRegisters
}

var (
	singletonMu   sync.Mutex
	singletonHeld bool
)

// NewDevice constructs the device core around an already-connected
// Display and Mapper. It fails if another Device built by this process
// is still live; call Close to release the slot.
func NewDevice(display Display, mapper transport.Mapper, opts *Options) (*Device, error) {
	if display == nil {
		return nil, errors.New("gpu: nil display")
	}
	if mapper == nil {
		return nil, errors.New("gpu: nil mapper")
	}

	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singletonHeld {
		return nil, errors.New("gpu: a virtio-gpu device is already instantiated in this process")
	}

	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = defaultLogger
	}

	singletonHeld = true
	return &Device{
		resources: NewResourceTable(),
		display:   display,
		mapper:    mapper,
		logger:    logger,
		debug:     opts.Debug,
	}, nil
}

// tracef logs only when debug tracing is enabled — malformed-chain
// reports, dropped config writes, and similar low-value-at-scale
// diagnostics (spec.md §9).
func (d *Device) tracef(format string, v ...interface{}) {
	if d.debug {
		d.logger.Printf(format, v...)
	}
}

// ConfigRead reads the device's config space at the given uint32-aligned
// offset (spec.md §6): offset 0 is events_read, 4 is events_clear (which
// always reads back as 0 — the guest writes it to acknowledge events, it
// never holds guest-set bits), 8 is num_scanouts, 12 is num_capsets.
func (d *Device) ConfigRead(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch offset {
	case 0:
		return d.config.eventsRead
	case 4:
		return 0
	case 8:
		return numScanouts
	case 12:
		return numCapsets
	default:
		return 0
	}
}

// ConfigWrite writes the device's config space. Only events_clear
// (offset 4) is writable; a write there clears the corresponding bits
// out of events_read. Writes to any other offset are diagnostic no-ops —
// logged only when they land somewhere other than the legitimate
// events_clear path, unlike the reference, which logs "write to
// read-only register" unconditionally and so warns on its own normal
// operation (spec.md §9 note 5; resolved as an Open Question in favor of
// the non-noisy behavior).
func (d *Device) ConfigWrite(offset uint32, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if offset == 4 {
		d.config.eventsRead &^= value
		d.config.eventsClear &^= value
		return
	}
	d.tracef("gpu: write to read-only config register at offset %d", offset)
}

// raiseEvent ORs bits into events_read, marking a hotplug or mode change
// for the guest. It is unexported and not reached by any command handler
// or exported method, so code outside package gpu cannot call it.
func (d *Device) raiseEvent(bits uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config.eventsRead |= bits
}

// Reset discards every live resource and unbinds the scanout (spec.md §8
// invariant 2). Event registers are left untouched, matching the
// reference, which treats them as belonging to the transport-level reset
// rather than the 2D resource state reset clears.
func (d *Device) Reset() {
	d.mu.Lock()
	d.resources.Clear()
	d.mu.Unlock()

	// Unbind outside the lock: SetSurface is a call into Display, and
	// the core's lock must never be held across that boundary.
	d.display.SetSurface(nil)
}

// Close tears the device down: release every resource, unbind the
// scanout, and free the singleton slot so a later NewDevice can succeed.
// Resources are released before the display handle is touched so that
// nothing here ever reaches back into a partially-torn-down Device — the
// ordering that the reference's deinit path gets backwards (spec.md §9
// note 3: it frees the device struct, then dereferences the now-invalid
// display handle still hanging off it).
func (d *Device) Close() error {
	d.mu.Lock()
	d.resources.Clear()
	d.mu.Unlock()

	d.display.SetSurface(nil)

	var err error
	if closer, ok := d.display.(interface{ Close() error }); ok {
		err = closer.Close()
	}

	singletonMu.Lock()
	singletonHeld = false
	singletonMu.Unlock()

	return err
}
