//go:build amd64 || arm64

package device

import "unsafe"

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/videodev2.h

const (
	VIDIOC_QUERYCAP = 0x80685600
	VIDIOC_ENUM_FMT = 0xc0405602
	VIDIOC_G_FMT    = 0xc0d05604
	VIDIOC_S_FMT    = 0xc0d05605
	VIDIOC_REQBUFS  = 0xc0145608
	VIDIOC_QUERYBUF = 0xc0585609

	VIDIOC_QBUF      = 0xc058560f
	VIDIOC_DQBUF     = 0xc0585611
	VIDIOC_STREAMON  = 0x40045612
	VIDIOC_STREAMOFF = 0x40045613
	VIDIOC_G_PARM    = 0xc0cc5615
	VIDIOC_S_PARM    = 0xc0cc5616

	VIDIOC_G_CTRL    = 0xc008561b
	VIDIOC_S_CTRL    = 0xc008561c
	VIDIOC_QUERYCTRL = 0xc0445624

	VIDIOC_ENUM_FRAMESIZES     = 0xc02c564a
	VIDIOC_ENUM_FRAMEINTERVALS = 0xc034564b

	// https://github.com/torvalds/linux/blob/master/include/uapi/linux/uvcvideo.h
	UVCIOC_CTRL_QUERY = 0xc0107521
)

type v4l2_format struct { // size 208
	typ uint32          // offset 0, size 4
	_   [4]byte         // align
	pix v4l2_pix_format // offset 8, size 48
	_   [152]byte       // filler
}

type v4l2_buffer struct { // size 88
	index     uint32        // offset 0, size 4
	typ       uint32        // offset 4, size 4
	bytesused uint32        // offset 8, size 4
	flags     uint32        // offset 12, size 4
	field     uint32        // offset 16, size 4
	_         [20]byte      // timestamp + align
	timecode  v4l2_timecode // offset 40, size 16
	sequence  uint32        // offset 56, size 4
	memory    uint32        // offset 60, size 4
	offset    uint32        // offset 64, size 4
	_         [4]byte       // align
	length    uint32        // offset 72, size 4
	_         [12]byte      // filler
}

type uvc_xu_control_query struct { // size 16
	unit     uint8          // offset 0, size 1
	selector uint8          // offset 1, size 1
	query    uint8          // offset 2, size 1
	_        uint8          // align
	size     uint16         // offset 4, size 2
	_        [2]byte        // align
	data     unsafe.Pointer // offset 8, size 8
}
