package zed

import (
	"fmt"
	"time"
)

// VendorStereolabs is the USB vendor ID of the camera
const VendorStereolabs = 0x2b03

// Control is an image quality parameter of the camera
type Control byte

const (
	Brightness Control = iota
	Contrast
	Hue
	Saturation
	Sharpness
	Gamma
	WhiteBalanceTemperature
	AutoWhiteBalanceTemperature
)

var controlNames = [...]string{
	Brightness:                  "brightness",
	Contrast:                    "contrast",
	Hue:                         "hue",
	Saturation:                  "saturation",
	Sharpness:                   "sharpness",
	Gamma:                       "gamma",
	WhiteBalanceTemperature:     "white_balance_temperature",
	AutoWhiteBalanceTemperature: "auto_white_balance_temperature",
}

// Controls lists every control in a stable order
var Controls = []Control{
	Brightness, Contrast, Hue, Saturation, Sharpness, Gamma,
	WhiteBalanceTemperature, AutoWhiteBalanceTemperature,
}

func (c Control) String() string {
	if int(c) < len(controlNames) {
		return controlNames[c]
	}
	return fmt.Sprintf("Control(%d)", byte(c))
}

func ParseControl(s string) (Control, error) {
	for i, name := range controlNames {
		if name == s {
			return Control(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Range is the legal interval of a control as reported by the device
type Range struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Step    int `json:"step,omitempty"`
	Default int `json:"default"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Device is the transport capability behind a VideoCapture: something that
// streams raw YUYV stereo frames and accepts control register writes.
// Implementations are not required to be safe for concurrent use, the
// VideoCapture serializes control access.
type Device interface {
	ID() string
	Name() string
	SerialNumber() string

	// SetMode negotiates packed YUV 4:2:2 at the combined stereo size and frame rate
	SetMode(width, height int, fps FrameRate) error
	StreamOn() error
	StreamOff() error
	// Capture copies the next raw frame into dst. Returns ErrTimeout when no frame
	// arrived in time, and the driver sequence number otherwise.
	Capture(dst []byte, timeout time.Duration) (n int, seq uint32, err error)

	// QueryControl returns ErrUnsupported for a missing control
	QueryControl(c Control) (Range, error)
	GetControl(c Control) (int, error)
	// SetControl returns ErrOutOfRange or ErrBusy when the device refuses the value
	SetControl(c Control, value int) error

	// LED returns ErrUnsupported when the camera has no indicator LED
	LED() (bool, error)
	SetLED(on bool) error

	Close() error
}

// Finder acquires the first available camera
type Finder func() (Device, error)
