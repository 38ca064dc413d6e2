package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceSingletonGuard(t *testing.T) {
	d, err := NewDevice(newFakeDisplay(), newFakeMapper(16), nil)
	require.NoError(t, err)
	defer d.Close()

	_, err = NewDevice(newFakeDisplay(), newFakeMapper(16), nil)
	assert.Error(t, err)

	require.NoError(t, d.Close())

	d2, err := NewDevice(newFakeDisplay(), newFakeMapper(16), nil)
	require.NoError(t, err)
	require.NoError(t, d2.Close())
}

func TestConfigEventsClearMasksEventsRead(t *testing.T) {
	disp := newFakeDisplay()
	d, err := NewDevice(disp, newFakeMapper(16), nil)
	require.NoError(t, err)
	defer d.Close()

	d.raiseEvent(0b1111)
	assert.Equal(t, uint32(0b1111), d.ConfigRead(0))

	d.ConfigWrite(4, 0b0101)
	assert.Equal(t, uint32(0b1010), d.ConfigRead(0))
	assert.Equal(t, uint32(0), d.ConfigRead(4))
}

func TestConfigWriteToOtherOffsetsIsNoop(t *testing.T) {
	disp := newFakeDisplay()
	d, err := NewDevice(disp, newFakeMapper(16), nil)
	require.NoError(t, err)
	defer d.Close()

	d.raiseEvent(0xFF)
	d.ConfigWrite(8, 0xFFFFFFFF)
	d.ConfigWrite(12, 0xFFFFFFFF)
	assert.Equal(t, uint32(numScanouts), d.ConfigRead(8))
	assert.Equal(t, uint32(numCapsets), d.ConfigRead(12))
	assert.Equal(t, uint32(0xFF), d.ConfigRead(0))
}

func TestCloseReleasesResourcesAndClosesDisplay(t *testing.T) {
	disp := newFakeDisplay()
	d, err := NewDevice(disp, newFakeMapper(4096), nil)
	require.NoError(t, err)

	create := &ResourceCreate2DReq{ResourceID: 1, Format: uint32(FormatB8G8R8A8Unorm), Width: 2, Height: 2}
	create.Hdr.Type = CmdResourceCreate2D
	_, derr := decodeAndDispatch(d, reqChain(create, 64))
	require.NoError(t, derr)
	require.Equal(t, 1, d.resources.Len())

	require.NoError(t, d.Close())
	assert.Equal(t, 0, d.resources.Len())
	assert.True(t, disp.Closed())
}

func TestNewDeviceRejectsNilCollaborators(t *testing.T) {
	_, err := NewDevice(nil, newFakeMapper(1), nil)
	assert.Error(t, err)
	_, err = NewDevice(newFakeDisplay(), nil, nil)
	assert.Error(t, err)
}
