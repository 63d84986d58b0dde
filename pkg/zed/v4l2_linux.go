//go:build linux && (386 || arm || amd64 || arm64)

package zed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zedopen/zedcapture/pkg/v4l2/device"
	"golang.org/x/sys/unix"
)

// Extension unit of the camera firmware, the LED is driven by one of its GPIOs
const (
	xuUnit     = 3
	xuSelector = 2

	xuTaskSet  = 0x50
	xuTaskGet  = 0x51
	xuTaskGPIO = 0x10

	gpioLED = 2
)

var controlIDs = map[Control]uint32{
	Brightness:                  device.V4L2_CID_BRIGHTNESS,
	Contrast:                    device.V4L2_CID_CONTRAST,
	Hue:                         device.V4L2_CID_HUE,
	Saturation:                  device.V4L2_CID_SATURATION,
	Sharpness:                   device.V4L2_CID_SHARPNESS,
	Gamma:                       device.V4L2_CID_GAMMA,
	WhiteBalanceTemperature:     device.V4L2_CID_WHITE_BALANCE_TEMPERATURE,
	AutoWhiteBalanceTemperature: device.V4L2_CID_AUTO_WHITE_BALANCE,
}

// FindV4L2 opens the first video node that belongs to a stereo camera
func FindV4L2() (Device, error) {
	paths, err := device.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}

	for _, path := range paths {
		cam, err := OpenV4L2(path)
		if err != nil {
			log.Trace().Err(err).Str("path", path).Msg("[zed] skip device")
			continue
		}
		return cam, nil
	}

	return nil, ErrDeviceNotFound
}

type v4l2Camera struct {
	dev *device.Device
	cap *device.Capability
	usb *device.USB
}

// OpenV4L2 opens path and checks it is a capture node of a stereo camera
func OpenV4L2(path string) (Device, error) {
	dev, err := device.Open(path)
	if err != nil {
		return nil, err
	}

	c, err := dev.Capability()
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	if !c.Capture {
		_ = dev.Close()
		return nil, fmt.Errorf("%w: %s is not a capture node", ErrDeviceNotFound, path)
	}

	// sysfs may be missing in containers, the card name is the fallback
	usb, err := device.ReadUSB(path)
	if err != nil {
		usb = nil
	}

	if usb != nil && usb.VendorID != VendorStereolabs || usb == nil && !strings.Contains(c.Card, "ZED") {
		_ = dev.Close()
		return nil, fmt.Errorf("%w: %s is %s", ErrDeviceNotFound, path, c.Card)
	}

	return &v4l2Camera{dev: dev, cap: c, usb: usb}, nil
}

func (c *v4l2Camera) ID() string {
	if c.cap.BusInfo != "" {
		return c.cap.BusInfo
	}
	return c.dev.Path()
}

func (c *v4l2Camera) Name() string {
	if c.usb != nil && c.usb.Product != "" {
		return c.usb.Product
	}
	return c.cap.Card
}

func (c *v4l2Camera) SerialNumber() string {
	if c.usb != nil {
		return c.usb.Serial
	}
	return ""
}

func (c *v4l2Camera) SetMode(width, height int, fps FrameRate) error {
	w, h, err := c.dev.SetFormat(uint32(width), uint32(height), device.V4L2_PIX_FMT_YUYV)
	if err != nil {
		return err
	}
	if int(w) != width || int(h) != height {
		return fmt.Errorf("%w: device chose %dx%d", ErrInvalidMode, w, h)
	}
	return c.dev.SetParam(uint32(fps))
}

func (c *v4l2Camera) StreamOn() error {
	return c.dev.StreamOn()
}

func (c *v4l2Camera) StreamOff() error {
	return c.dev.StreamOff()
}

func (c *v4l2Camera) Capture(dst []byte, timeout time.Duration) (int, uint32, error) {
	n, seq, err := c.dev.Capture(dst, timeout)
	if errors.Is(err, device.ErrTimeout) {
		return 0, 0, ErrTimeout
	}
	return n, seq, err
}

func (c *v4l2Camera) QueryControl(ctrl Control) (Range, error) {
	id, ok := controlIDs[ctrl]
	if !ok {
		return Range{}, ErrUnsupported
	}

	q, err := c.dev.QueryControl(id)
	if err != nil {
		return Range{}, controlError(err)
	}
	if q.Disabled {
		return Range{}, ErrUnsupported
	}

	return Range{Min: int(q.Min), Max: int(q.Max), Step: int(q.Step), Default: int(q.Default)}, nil
}

func (c *v4l2Camera) GetControl(ctrl Control) (int, error) {
	id, ok := controlIDs[ctrl]
	if !ok {
		return 0, ErrUnsupported
	}
	v, err := c.dev.GetControl(id)
	if err != nil {
		return 0, controlError(err)
	}
	return int(v), nil
}

func (c *v4l2Camera) SetControl(ctrl Control, value int) error {
	id, ok := controlIDs[ctrl]
	if !ok {
		return ErrUnsupported
	}
	if err := c.dev.SetControl(id, int32(value)); err != nil {
		return controlError(err)
	}
	return nil
}

func (c *v4l2Camera) LED() (bool, error) {
	buf, err := c.xuBuffer()
	if err != nil {
		return false, err
	}

	buf[0], buf[1], buf[2] = xuTaskGet, xuTaskGPIO, gpioLED
	if err = c.dev.QueryXU(xuUnit, xuSelector, device.UVC_SET_CUR, buf); err != nil {
		return false, controlError(err)
	}
	if err = c.dev.QueryXU(xuUnit, xuSelector, device.UVC_GET_CUR, buf); err != nil {
		return false, controlError(err)
	}

	return buf[3] != 0, nil
}

func (c *v4l2Camera) SetLED(on bool) error {
	buf, err := c.xuBuffer()
	if err != nil {
		return err
	}

	buf[0], buf[1], buf[2] = xuTaskSet, xuTaskGPIO, gpioLED
	if on {
		buf[3] = 1
	}

	return controlError(c.dev.QueryXU(xuUnit, xuSelector, device.UVC_SET_CUR, buf))
}

// xuBuffer allocates a request buffer of the length the unit reports
func (c *v4l2Camera) xuBuffer() ([]byte, error) {
	b := make([]byte, 2)
	if err := c.dev.QueryXU(xuUnit, xuSelector, device.UVC_GET_LEN, b); err != nil {
		return nil, fmt.Errorf("%w: extension unit: %w", ErrUnsupported, err)
	}

	size := binary.LittleEndian.Uint16(b)
	if size < 4 {
		return nil, fmt.Errorf("%w: extension unit length %d", ErrUnsupported, size)
	}
	return make([]byte, size), nil
}

func (c *v4l2Camera) Close() error {
	return c.dev.Close()
}

func controlError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EBUSY), errors.Is(err, unix.EACCES):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	case errors.Is(err, unix.ERANGE):
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOTTY), errors.Is(err, unix.ENOENT):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return err
}
