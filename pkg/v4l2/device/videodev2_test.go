//go:build 386 || arm || amd64 || arm64

package device

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	require.Equal(t, 104, int(unsafe.Sizeof(v4l2_capability{})))
	require.Equal(t, 204, int(unsafe.Sizeof(v4l2_streamparm{})))
	require.Equal(t, 20, int(unsafe.Sizeof(v4l2_requestbuffers{})))
	require.Equal(t, 16, int(unsafe.Sizeof(v4l2_timecode{})))
	require.Equal(t, 64, int(unsafe.Sizeof(v4l2_fmtdesc{})))
	require.Equal(t, 44, int(unsafe.Sizeof(v4l2_frmsizeenum{})))
	require.Equal(t, 52, int(unsafe.Sizeof(v4l2_frmivalenum{})))
	require.Equal(t, 68, int(unsafe.Sizeof(v4l2_queryctrl{})))
	require.Equal(t, 8, int(unsafe.Sizeof(v4l2_control{})))

	switch runtime.GOARCH {
	case "amd64", "arm64":
		require.Equal(t, 208, int(unsafe.Sizeof(v4l2_format{})))
		require.Equal(t, 88, int(unsafe.Sizeof(v4l2_buffer{})))
		require.Equal(t, 16, int(unsafe.Sizeof(uvc_xu_control_query{})))
	case "386", "arm":
		require.Equal(t, 204, int(unsafe.Sizeof(v4l2_format{})))
		require.Equal(t, 68, int(unsafe.Sizeof(v4l2_buffer{})))
		require.Equal(t, 12, int(unsafe.Sizeof(uvc_xu_control_query{})))
	}
}

func TestIoctlNumbers(t *testing.T) {
	// ioctl numbers encode the argument size, so they must follow the struct layout
	require.Equal(t, uintptr(VIDIOC_QUERYCTRL), iowr('V', 36, unsafe.Sizeof(v4l2_queryctrl{})))
	require.Equal(t, uintptr(VIDIOC_G_CTRL), iowr('V', 27, unsafe.Sizeof(v4l2_control{})))
	require.Equal(t, uintptr(VIDIOC_S_CTRL), iowr('V', 28, unsafe.Sizeof(v4l2_control{})))
	require.Equal(t, uintptr(VIDIOC_S_FMT), iowr('V', 5, unsafe.Sizeof(v4l2_format{})))
	require.Equal(t, uintptr(VIDIOC_DQBUF), iowr('V', 17, unsafe.Sizeof(v4l2_buffer{})))
	require.Equal(t, uintptr(UVCIOC_CTRL_QUERY), iowr('u', 0x21, unsafe.Sizeof(uvc_xu_control_query{})))
}

func iowr(typ byte, nr byte, size uintptr) uintptr {
	return 3<<30 | size<<16 | uintptr(typ)<<8 | uintptr(nr)
}
