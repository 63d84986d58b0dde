package zed

import (
	"errors"
	"sync"
	"time"
)

type fakeDevice struct {
	mu sync.Mutex

	width, height int
	fps           FrameRate
	streaming     bool
	closed        bool

	seq  uint32
	step uint32 // sequence increment, >1 simulates overwritten frames

	values map[Control]int
	ranges map[Control]Range
	led    *bool

	modeErr error

	captureErr error // returned by Capture after timeouts
	timeouts   int   // Capture returns ErrTimeout this many times first
}

func newFakeDevice() *fakeDevice {
	led := false
	return &fakeDevice{
		step: 1,
		values: map[Control]int{
			Brightness: 4, Contrast: 4, Hue: 0, Saturation: 4, Sharpness: 4, Gamma: 5,
			WhiteBalanceTemperature: 4600, AutoWhiteBalanceTemperature: 1,
		},
		ranges: map[Control]Range{
			Brightness:                  {Min: 0, Max: 8, Step: 1, Default: 4},
			Contrast:                    {Min: 0, Max: 8, Step: 1, Default: 4},
			Hue:                         {Min: 0, Max: 11, Step: 1, Default: 0},
			Saturation:                  {Min: 0, Max: 8, Step: 1, Default: 4},
			Sharpness:                   {Min: 0, Max: 8, Step: 1, Default: 4},
			Gamma:                       {Min: 1, Max: 9, Step: 1, Default: 5},
			WhiteBalanceTemperature:     {Min: 2800, Max: 6500, Step: 100, Default: 4600},
			AutoWhiteBalanceTemperature: {Min: 0, Max: 1, Step: 1, Default: 1},
		},
		led: &led,
	}
}

func (d *fakeDevice) finder() Finder {
	return func() (Device, error) { return d, nil }
}

func (d *fakeDevice) ID() string           { return "usb-0000:00:14.0-1" }
func (d *fakeDevice) Name() string         { return "ZED" }
func (d *fakeDevice) SerialNumber() string { return "OV0037970291" }

func (d *fakeDevice) SetMode(width, height int, fps FrameRate) error {
	if d.modeErr != nil {
		return d.modeErr
	}
	d.width, d.height, d.fps = width, height, fps
	return nil
}

func (d *fakeDevice) StreamOn() error {
	d.mu.Lock()
	d.streaming = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) StreamOff() error {
	d.mu.Lock()
	d.streaming = false
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Capture(dst []byte, timeout time.Duration) (int, uint32, error) {
	time.Sleep(time.Millisecond)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.streaming {
		return 0, 0, errors.New("fake: not streaming")
	}

	if d.timeouts > 0 {
		d.timeouts--
		return 0, 0, ErrTimeout
	}
	if d.captureErr != nil {
		return 0, 0, d.captureErr
	}

	for i := 0; i+3 < len(dst); i += 4 {
		dst[i], dst[i+1], dst[i+2], dst[i+3] = 235, 128, 16, 128
	}

	seq := d.seq
	d.seq += d.step
	return len(dst), seq, nil
}

func (d *fakeDevice) QueryControl(c Control) (Range, error) {
	r, ok := d.ranges[c]
	if !ok {
		return Range{}, ErrUnsupported
	}
	return r, nil
}

func (d *fakeDevice) GetControl(c Control) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[c], nil
}

func (d *fakeDevice) SetControl(c Control, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c == WhiteBalanceTemperature && d.values[AutoWhiteBalanceTemperature] != 0 {
		return ErrBusy
	}
	d.values[c] = value
	return nil
}

func (d *fakeDevice) LED() (bool, error) {
	if d.led == nil {
		return false, ErrUnsupported
	}
	return *d.led, nil
}

func (d *fakeDevice) SetLED(on bool) error {
	if d.led == nil {
		return ErrUnsupported
	}
	*d.led = on
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}
