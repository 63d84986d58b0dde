package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/zedopen/zedcapture/pkg/zed"
)

// Camera is a software zed.Device that streams a moving test pattern. It has
// the same control ranges as the real camera and an indicator LED.
type Camera struct {
	Serial string
	// Interval overrides the frame period derived from the frame rate
	Interval time.Duration

	mu        sync.Mutex
	width     int
	height    int
	fps       zed.FrameRate
	streaming bool
	closed    bool
	unplugged bool
	seq       uint32
	next      time.Time

	values map[zed.Control]int
	ranges map[zed.Control]zed.Range
	led    bool
}

func NewCamera() *Camera {
	c := &Camera{
		Serial: "SN1010",
		ranges: map[zed.Control]zed.Range{
			zed.Brightness:                  {Min: 0, Max: 8, Step: 1, Default: 4},
			zed.Contrast:                    {Min: 0, Max: 8, Step: 1, Default: 4},
			zed.Hue:                         {Min: 0, Max: 11, Step: 1, Default: 0},
			zed.Saturation:                  {Min: 0, Max: 8, Step: 1, Default: 4},
			zed.Sharpness:                   {Min: 0, Max: 8, Step: 1, Default: 4},
			zed.Gamma:                       {Min: 1, Max: 9, Step: 1, Default: 5},
			zed.WhiteBalanceTemperature:     {Min: 2800, Max: 6500, Step: 100, Default: 4600},
			zed.AutoWhiteBalanceTemperature: {Min: 0, Max: 1, Step: 1, Default: 1},
		},
		values: map[zed.Control]int{},
		led:    true,
	}
	for ctrl, r := range c.ranges {
		c.values[ctrl] = r.Default
	}
	return c
}

var ErrUnplugged = errors.New("fake: camera unplugged")

// Unplug makes Finder, capture and mode changes fail with ErrUnplugged
func (c *Camera) Unplug() {
	c.mu.Lock()
	c.unplugged = true
	c.mu.Unlock()
}

// Finder hands out the same camera on every call
func (c *Camera) Finder() zed.Finder {
	return func() (zed.Device, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.unplugged {
			return nil, ErrUnplugged
		}
		c.closed = false
		return c, nil
	}
}

func (c *Camera) ID() string           { return "fake" }
func (c *Camera) Name() string         { return "ZED (fake)" }
func (c *Camera) SerialNumber() string { return c.Serial }

func (c *Camera) SetMode(width, height int, fps zed.FrameRate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unplugged {
		return ErrUnplugged
	}
	if c.streaming {
		return zed.ErrAlreadyStreaming
	}
	c.width, c.height, c.fps = width, height, fps
	return nil
}

func (c *Camera) StreamOn() error {
	c.mu.Lock()
	c.streaming = true
	c.next = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Camera) StreamOff() error {
	c.mu.Lock()
	c.streaming = false
	c.mu.Unlock()
	return nil
}

func (c *Camera) Capture(dst []byte, timeout time.Duration) (int, uint32, error) {
	c.mu.Lock()
	if c.unplugged {
		c.mu.Unlock()
		return 0, 0, ErrUnplugged
	}
	if !c.streaming {
		c.mu.Unlock()
		return 0, 0, zed.ErrNotStreaming
	}

	interval := c.Interval
	if interval == 0 && c.fps != 0 {
		interval = time.Second / time.Duration(c.fps)
	}
	c.next = c.next.Add(interval)
	wait := time.Until(c.next)
	c.mu.Unlock()

	if wait > timeout {
		time.Sleep(timeout)
		return 0, 0, zed.ErrTimeout
	}
	if wait > 0 {
		time.Sleep(wait)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.width * c.height * 2
	if n > len(dst) {
		n = len(dst)
	}
	c.pattern(dst[:n])
	c.seq++
	return n, c.seq, nil
}

// pattern draws vertical luma bars scrolling by one pixel pair per frame,
// shifted between the eyes so the pair has a constant disparity
func (c *Camera) pattern(dst []byte) {
	eye := c.width / 2
	offset := int(c.seq)
	for i := 0; i+3 < len(dst); i += 4 {
		x := (i / 2) % c.width
		if x >= eye {
			x = x - eye + 8
		}
		luma := byte(16 + ((x+offset*2)/32%2)*219)
		dst[i] = luma
		dst[i+1] = 128
		dst[i+2] = luma
		dst[i+3] = 128
	}
}

func (c *Camera) QueryControl(ctrl zed.Control) (zed.Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.ranges[ctrl]
	if !ok {
		return zed.Range{}, zed.ErrUnsupported
	}
	return r, nil
}

func (c *Camera) GetControl(ctrl zed.Control) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[ctrl]
	if !ok {
		return 0, zed.ErrUnsupported
	}
	return v, nil
}

func (c *Camera) SetControl(ctrl zed.Control, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.ranges[ctrl]
	if !ok {
		return zed.ErrUnsupported
	}
	if !r.Contains(value) {
		return zed.ErrOutOfRange
	}
	// manual temperature is locked while auto white balance is on
	if ctrl == zed.WhiteBalanceTemperature && c.values[zed.AutoWhiteBalanceTemperature] != 0 {
		return zed.ErrBusy
	}
	c.values[ctrl] = value
	return nil
}

func (c *Camera) LED() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.led, nil
}

func (c *Camera) SetLED(on bool) error {
	c.mu.Lock()
	c.led = on
	c.mu.Unlock()
	return nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	c.closed = true
	c.streaming = false
	c.mu.Unlock()
	return nil
}

func (c *Camera) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
