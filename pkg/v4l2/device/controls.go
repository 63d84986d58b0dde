//go:build linux && (386 || arm || amd64 || arm64)

package device

import (
	"runtime"
	"unsafe"
)

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/v4l2-controls.h
const (
	V4L2_CID_BRIGHTNESS                = 0x00980900
	V4L2_CID_CONTRAST                  = 0x00980901
	V4L2_CID_SATURATION                = 0x00980902
	V4L2_CID_HUE                       = 0x00980903
	V4L2_CID_AUTO_WHITE_BALANCE        = 0x0098090c
	V4L2_CID_GAMMA                     = 0x00980910
	V4L2_CID_WHITE_BALANCE_TEMPERATURE = 0x0098091a
	V4L2_CID_SHARPNESS                 = 0x0098091b
)

type Control struct {
	ID      uint32
	Name    string
	Min     int32
	Max     int32
	Step    int32
	Default int32

	Disabled bool
	Inactive bool
}

func (d *Device) QueryControl(id uint32) (*Control, error) {
	q := v4l2_queryctrl{id: id}
	if err := ioctl(d.fd, VIDIOC_QUERYCTRL, unsafe.Pointer(&q)); err != nil {
		return nil, err
	}
	return &Control{
		ID:       q.id,
		Name:     str(q.name[:]),
		Min:      q.minimum,
		Max:      q.maximum,
		Step:     q.step,
		Default:  q.default_value,
		Disabled: q.flags&V4L2_CTRL_FLAG_DISABLED != 0,
		Inactive: q.flags&V4L2_CTRL_FLAG_INACTIVE != 0,
	}, nil
}

func (d *Device) GetControl(id uint32) (int32, error) {
	c := v4l2_control{id: id}
	if err := ioctl(d.fd, VIDIOC_G_CTRL, unsafe.Pointer(&c)); err != nil {
		return 0, err
	}
	return c.value, nil
}

func (d *Device) SetControl(id uint32, value int32) error {
	c := v4l2_control{id: id, value: value}
	return ioctl(d.fd, VIDIOC_S_CTRL, unsafe.Pointer(&c))
}

// UVC class-specific request codes for extension unit queries
const (
	UVC_SET_CUR = 0x01
	UVC_GET_CUR = 0x81
	UVC_GET_LEN = 0x85
)

// QueryXU runs a raw request against a UVC extension unit through the uvcvideo
// driver, so the interface stays claimed by the kernel while streaming.
func (d *Device) QueryXU(unit, selector, query uint8, data []byte) error {
	q := uvc_xu_control_query{
		unit:     unit,
		selector: selector,
		query:    query,
		size:     uint16(len(data)),
	}
	if len(data) > 0 {
		q.data = unsafe.Pointer(&data[0])
	}
	err := ioctl(d.fd, UVCIOC_CTRL_QUERY, unsafe.Pointer(&q))
	runtime.KeepAlive(data)
	return err
}
