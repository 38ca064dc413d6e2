// Package virtiogpu implements the command-processing core of a
// paravirtualized 2D graphics device: descriptor-chain dispatch, the 2D
// resource model, and the fenced response protocol described by the
// virtio-gpu device specification.
//
// The transport (descriptor rings, notification doorbells) and the
// display backend (window/framebuffer publication) are external
// collaborators, consumed through the interfaces in package transport
// and gpu.Display respectively. See package gpu for the core engine.
package virtiogpu
