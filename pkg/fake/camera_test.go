package fake

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zedopen/zedcapture/pkg/zed"
)

func TestCamera(t *testing.T) {
	cam := NewCamera()
	cam.Interval = time.Millisecond

	vc := zed.NewVideoCapture(cam.Finder())

	dims, err := vc.Open(zed.VGA, zed.FPS100, zed.Greyscale)
	require.NoError(t, err)
	require.Equal(t, zed.StereoDimensions{Width: 1344, Height: 376}, dims)

	serial, err := vc.SerialNumber()
	require.NoError(t, err)
	require.Equal(t, "SN1010", serial)

	var frames atomic.Int32
	var first []byte
	require.NoError(t, vc.Start(func(frame []byte, height, width, channels int) {
		if frames.Add(1) == 1 {
			first = append(first, frame...)
		}
	}))

	require.Eventually(t, func() bool { return frames.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, vc.Stop())

	require.Len(t, first, 1344*376)
	require.Zero(t, vc.Stats().Dropped)

	// luma bars
	require.Contains(t, first, byte(16))
	require.Contains(t, first, byte(235))

	require.NoError(t, vc.SetAutoWhiteBalanceTemperature(false))
	require.NoError(t, vc.SetWhiteBalanceTemperature(3000))
	v, err := vc.GetWhiteBalanceTemperature()
	require.NoError(t, err)
	require.Equal(t, 3000, v)

	require.ErrorIs(t, vc.SetBrightness(9), zed.ErrOutOfRange)

	require.NoError(t, vc.ToggleLED())
	on, err := vc.IsLEDOn()
	require.NoError(t, err)
	require.False(t, on)

	require.NoError(t, vc.Close())
	require.True(t, cam.Closed())
}

func TestCaptureTimeout(t *testing.T) {
	cam := NewCamera()
	cam.Interval = time.Second
	require.NoError(t, cam.SetMode(64, 2, zed.FPS30))
	require.NoError(t, cam.StreamOn())

	_, _, err := cam.Capture(make([]byte, 256), 10*time.Millisecond)
	require.ErrorIs(t, err, zed.ErrTimeout)

	require.NoError(t, cam.StreamOff())
	_, _, err = cam.Capture(make([]byte, 256), time.Second)
	require.ErrorIs(t, err, zed.ErrNotStreaming)
}

func TestUnplug(t *testing.T) {
	cam := NewCamera()
	cam.Unplug()

	_, _, err := cam.Capture(make([]byte, 4), time.Millisecond)
	require.ErrorIs(t, err, ErrUnplugged)

	vc := zed.NewVideoCapture(cam.Finder())
	_, err = vc.Open(zed.VGA, zed.FPS15, zed.YUV)
	require.ErrorIs(t, err, zed.ErrDeviceNotFound)
	require.ErrorIs(t, err, ErrUnplugged)
}
