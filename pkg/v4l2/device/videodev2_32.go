//go:build 386 || arm

package device

import "unsafe"

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/videodev2.h

const (
	VIDIOC_QUERYCAP = 0x80685600
	VIDIOC_ENUM_FMT = 0xc0405602
	VIDIOC_G_FMT    = 0xc0cc5604
	VIDIOC_S_FMT    = 0xc0cc5605
	VIDIOC_REQBUFS  = 0xc0145608
	VIDIOC_QUERYBUF = 0xc0445609

	VIDIOC_QBUF      = 0xc044560f
	VIDIOC_DQBUF     = 0xc0445611
	VIDIOC_STREAMON  = 0x40045612
	VIDIOC_STREAMOFF = 0x40045613
	VIDIOC_G_PARM    = 0xc0cc5615
	VIDIOC_S_PARM    = 0xc0cc5616

	VIDIOC_G_CTRL    = 0xc008561b
	VIDIOC_S_CTRL    = 0xc008561c
	VIDIOC_QUERYCTRL = 0xc0445624

	VIDIOC_ENUM_FRAMESIZES     = 0xc02c564a
	VIDIOC_ENUM_FRAMEINTERVALS = 0xc034564b

	UVCIOC_CTRL_QUERY = 0xc00c7521
)

type v4l2_format struct { // size 204
	typ uint32          // 0
	pix v4l2_pix_format // 4
	_   [152]byte       // 52
}

type v4l2_buffer struct { // size 68
	index     uint32        // 0
	typ       uint32        // 4
	bytesused uint32        // 8
	flags     uint32        // 12
	field     uint32        // 16
	_         [8]byte       // 20
	timecode  v4l2_timecode // 28
	sequence  uint32        // 44
	memory    uint32        // 48
	offset    uint32        // 52
	length    uint32        // 56
	_         [8]byte       // 60
}

type uvc_xu_control_query struct { // size 12
	unit     uint8          // 0
	selector uint8          // 1
	query    uint8          // 2
	_        uint8          // 3
	size     uint16         // 4
	_        [2]byte        // 6
	data     unsafe.Pointer // 8
}
