// Command virtiogpu wires the command-processing core to a concrete
// ebiten-backed display and drives it through a short scripted command
// sequence — a stand-in for a real descriptor-ring transport, which is
// outside this core's scope, so there is no virtqueue on the other end
// of a real VMM to connect to here.
package main

import (
	"log"
	"unsafe"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"

	"github.com/vmm-gpu/virtio-gpu-core/display/ebitendisplay"
	"github.com/vmm-gpu/virtio-gpu-core/gpu"
	"github.com/vmm-gpu/virtio-gpu-core/internal/gpufake"
	"github.com/vmm-gpu/virtio-gpu-core/transport"
)

func main() {
	var width = pflag.IntP("width", "w", 640, "scanout width in pixels")
	var height = pflag.IntP("height", "h", 480, "scanout height in pixels")
	var debug = pflag.BoolP("debug", "d", false, "log malformed-chain and config diagnostics")
	pflag.Parse()

	log.SetFlags(log.Lmicroseconds)

	disp := ebitendisplay.New(*width, *height, make([]byte, 128))

	mapper := gpufake.NewMapper(1 << 20)
	device, err := gpu.NewDevice(disp, mapper, &gpu.Options{Debug: *debug, Logger: log.Default()})
	if err != nil {
		log.Fatal("gpu.NewDevice: ", err)
	}
	defer device.Close() // also closes disp

	control := gpufake.NewQueue()
	pump := gpu.NewPump(device, control, gpufake.NewQueue())

	seedCheckerboard(mapper, *width, *height)
	queueCreateAttachTransferScanout(control, mapper, uint32(*width), uint32(*height))
	pump.NotifyControl()

	if err := ebiten.RunGame(disp); err != nil {
		log.Fatal("ebiten.RunGame: ", err)
	}
}

// seedCheckerboard fills the guest-memory arena the fake mapper backs
// with a checkerboard pattern in B8G8R8A8, so the demo window shows
// something recognizable instead of a blank buffer.
func seedCheckerboard(mapper *gpufake.Mapper, width, height int) {
	arena := mapper.Arena()
	stride := width * 4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := y*stride + x*4
			if off+4 > len(arena) {
				return
			}
			if (x/32+y/32)%2 == 0 {
				arena[off], arena[off+1], arena[off+2], arena[off+3] = 0x20, 0x20, 0x20, 0xff
			} else {
				arena[off], arena[off+1], arena[off+2], arena[off+3] = 0xd0, 0xd0, 0xd0, 0xff
			}
		}
	}
}

// queueCreateAttachTransferScanout pushes four chains that follow the
// first four steps of scenario A from the command-processing core's test
// scenarios: CREATE_2D, ATTACH_BACKING, TRANSFER_TO_HOST_2D, SET_SCANOUT
// (no RESOURCE_FLUSH).
func queueCreateAttachTransferScanout(control *gpufake.Queue, mapper *gpufake.Mapper, width, height uint32) {
	const resourceID = 1

	create := gpu.ResourceCreate2DReq{ResourceID: resourceID, Format: uint32(gpu.FormatB8G8R8A8Unorm), Width: width, Height: height}
	create.Hdr.Type = gpu.CmdResourceCreate2D
	control.Push(oneSegmentChain(bytesOf(&create), 64))

	attachHdr := gpu.ResourceAttachBackingReq{ResourceID: resourceID, NrEntries: 1}
	attachHdr.Hdr.Type = gpu.CmdResourceAttachBacking
	entry := gpu.MemEntry{Addr: 0, Length: uint32(len(mapper.Arena()))}
	control.Push(&transport.Chain{
		Read:  []transport.Segment{copyBytes(bytesOf(&attachHdr)), copyBytes(bytesOf(&entry))},
		Write: []transport.Segment{make([]byte, 64)},
	})

	transfer := gpu.TransferToHost2DReq{Rect: gpu.Rect{X: 0, Y: 0, Width: width, Height: height}, Offset: 0, ResourceID: resourceID}
	transfer.Hdr.Type = gpu.CmdTransferToHost2D
	control.Push(oneSegmentChain(bytesOf(&transfer), 64))

	scanout := gpu.SetScanoutReq{Rect: gpu.Rect{X: 0, Y: 0, Width: width, Height: height}, ScanoutID: 0, ResourceID: resourceID}
	scanout.Hdr.Type = gpu.CmdSetScanout
	control.Push(oneSegmentChain(bytesOf(&scanout), 64))
}

func bytesOf[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func oneSegmentChain(read []byte, writeSize int) *transport.Chain {
	return &transport.Chain{
		Read:  []transport.Segment{copyBytes(read)},
		Write: []transport.Segment{make([]byte, writeSize)},
	}
}
