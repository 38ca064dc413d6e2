// Package ebitendisplay is a concrete gpu.Display backed by an ebiten
// window: it owns the bottom-half worker the command-processing core's
// Queue Pump schedules work onto, and converts published surfaces into
// an ebiten.Image for presentation.
package ebitendisplay

import (
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/vmm-gpu/virtio-gpu-core/gpu"
)

// Display implements gpu.Display. Its bottom-half worker is a single
// goroutine draining a task channel — the Go analogue of the reference's
// submit_bh onto a dedicated display thread (spec.md §5): every task the
// Queue Pump submits runs there, serialized, never on the caller's own
// goroutine.
type Display struct {
	width, height int
	edid          []byte

	bh     chan func()
	stopBH chan struct{}

	mu      sync.Mutex
	surface *ebiten.Image
}

// New starts a Display sized width x height and launches its bottom-half
// worker. Call Close to stop the worker once the ebiten game loop exits.
func New(width, height int, edid []byte) *Display {
	d := &Display{
		width:  width,
		height: height,
		edid:   edid,
		bh:     make(chan func(), 64),
		stopBH: make(chan struct{}),
	}
	go d.runBH()
	return d
}

func (d *Display) runBH() {
	for {
		select {
		case task := <-d.bh:
			task()
		case <-d.stopBH:
			return
		}
	}
}

// Close stops the bottom-half worker. Safe to call once.
func (d *Display) Close() error {
	close(d.stopBH)
	return nil
}

// Update and Layout satisfy ebiten.Game so a Display can be handed
// straight to ebiten.RunGame; all the actual state changes happen in
// SetSurface/UpdateSurface, off the game loop's goroutine.
func (d *Display) Update() error { return nil }

func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.width, d.height
}

// Draw presents whatever surface is currently bound. A blank window
// (nothing bound yet, or since the last unbind) just draws nothing.
func (d *Display) Draw(screen *ebiten.Image) {
	d.mu.Lock()
	surf := d.surface
	d.mu.Unlock()
	if surf != nil {
		screen.DrawImage(surf, &ebiten.DrawImageOptions{})
	}
}

func (d *Display) Info() gpu.DisplayInfo {
	return gpu.DisplayInfo{Width: uint32(d.width), Height: uint32(d.height)}
}

func (d *Display) EDID() []byte { return d.edid }

func (d *Display) SubmitBH(task func()) {
	d.bh <- task
}

// SetSurface replaces the bound surface wholesale; a nil surf unbinds
// and leaves the window blank.
func (d *Display) SetSurface(surf *gpu.Surface) {
	defer surf.Release()
	if surf == nil {
		d.mu.Lock()
		d.surface = nil
		d.mu.Unlock()
		return
	}
	img := surfaceToImage(surf)
	d.mu.Lock()
	d.surface = img
	d.mu.Unlock()
}

// UpdateSurface blits surf's rectangle onto the currently bound image.
// If nothing is bound yet, this behaves like SetSurface over the whole
// published buffer — mirroring a flush arriving before any scanout bind.
func (d *Display) UpdateSurface(surf *gpu.Surface) {
	defer surf.Release()
	if surf == nil {
		return
	}
	img := surfaceToImage(surf)
	d.mu.Lock()
	if d.surface == nil {
		d.surface = img
	} else {
		d.surface.DrawImage(img, &ebiten.DrawImageOptions{})
	}
	d.mu.Unlock()
}

// surfaceToImage converts a host pixel buffer into an ebiten.Image,
// going through image/draw so every HostFormat byte order this core
// produces (spec.md §6) ends up as the image/color.RGBA the rest of the
// Go image ecosystem expects.
func surfaceToImage(surf *gpu.Surface) *ebiten.Image {
	src := &pixelImage{surf: surf}
	dst := image.NewRGBA(image.Rect(0, 0, int(surf.Width), int(surf.Height)))
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	return ebiten.NewImageFromImage(dst)
}

// pixelImage adapts a gpu.Surface's raw bytes to the standard image.Image
// interface, so image/draw can do the format conversion this core would
// otherwise have to hand-roll per HostFormat.
type pixelImage struct {
	surf *gpu.Surface
}

func (p *pixelImage) ColorModel() color.Model { return color.RGBAModel }

func (p *pixelImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(p.surf.Width), int(p.surf.Height))
}

func (p *pixelImage) At(x, y int) color.Color {
	s := p.surf
	off := int(uint32(y)*s.Stride) + x*4
	if off < 0 || off+4 > len(s.Pixels) {
		return color.RGBA{}
	}
	b := s.Pixels[off : off+4]
	r, g, bch, a := channelOrder(s.Format, b)
	return color.RGBA{R: r, G: g, B: bch, A: a}
}

// channelOrder picks out R, G, B, A from a raw 4-byte pixel according to
// its host layout (gpu.HostFormat's byte order is spelled out low
// address first; see gpu/pixel.go).
func channelOrder(hf gpu.HostFormat, b []byte) (r, g, bch, a byte) {
	switch hf {
	case gpu.HostX8R8G8B8:
		return b[1], b[2], b[3], 0xff
	case gpu.HostA8R8G8B8:
		return b[1], b[2], b[3], b[0]
	case gpu.HostB8G8R8X8:
		return b[2], b[1], b[0], 0xff
	case gpu.HostB8G8R8A8:
		return b[2], b[1], b[0], b[3]
	case gpu.HostX8B8G8R8:
		return b[3], b[2], b[1], 0xff
	case gpu.HostA8B8G8R8:
		return b[3], b[2], b[1], b[0]
	case gpu.HostR8G8B8X8:
		return b[0], b[1], b[2], 0xff
	case gpu.HostR8G8B8A8:
		return b[0], b[1], b[2], b[3]
	default:
		return 0, 0, 0, 0xff
	}
}
