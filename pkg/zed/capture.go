package zed

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

type State int32

const (
	Closed State = iota
	Opened
	Streaming
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opened:
		return "opened"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// FrameFunc receives every captured frame. The frame slice has
// height * width * channels bytes and is reused for the next frame, so the
// callback must copy anything it wants to keep. The callback runs on the
// capture goroutine and should return within one frame interval.
type FrameFunc func(frame []byte, height, width, channels int)

type Stats struct {
	Frames   uint64 `json:"frames"`
	Dropped  uint64 `json:"dropped"`
	Timeouts uint64 `json:"timeouts"`
	// Failed is set when capture died on a device error, State stays
	// Streaming until Stop returns that error
	Failed bool `json:"failed"`
}

// VideoCapture owns one camera: Closed -> Opened -> Streaming -> Opened -> Closed.
// Only one VideoCapture may be open per process.
type VideoCapture struct {
	find Finder

	// mu serializes lifecycle transitions, ctrl guards dev and control state.
	// Stop holds mu while joining the capture goroutine, so the frame callback
	// can still reach controls through ctrl.
	mu   sync.Mutex
	ctrl sync.Mutex

	state      atomic.Int32
	dev        Device
	mode       Mode
	colorSpace ColorSpace
	dims       StereoDimensions
	ranges     map[Control]Range
	hasLED     bool

	frame []byte // delivered to FrameFunc
	raw   []byte // YUYV from the device, same as frame for YUV

	stop chan struct{}
	done chan struct{}
	err  error // capture goroutine result, read after done

	frames   atomic.Uint64
	dropped  atomic.Uint64
	timeouts atomic.Uint64
	failed   atomic.Bool
}

// NewVideoCapture uses find to acquire the camera on Open, nil means FindV4L2
func NewVideoCapture(find Finder) *VideoCapture {
	if find == nil {
		find = FindV4L2
	}
	return &VideoCapture{find: find}
}

// owner is the process wide camera slot, taken by Open and released by Close
var owner struct {
	mu sync.Mutex
	vc *VideoCapture
}

func acquire(c *VideoCapture) error {
	owner.mu.Lock()
	defer owner.mu.Unlock()
	if owner.vc != nil {
		return ErrAlreadyOpen
	}
	owner.vc = c
	return nil
}

func release(c *VideoCapture) {
	owner.mu.Lock()
	if owner.vc == c {
		owner.vc = nil
	}
	owner.mu.Unlock()
}

// Open validates the mode, acquires the first camera and negotiates the mode with it
func (c *VideoCapture) Open(res Resolution, fps FrameRate, cs ColorSpace) (StereoDimensions, error) {
	mode, err := NewMode(res, fps)
	if err != nil {
		return StereoDimensions{}, err
	}
	return c.OpenMode(mode, cs)
}

// OpenDefault opens the camera in DefaultMode
func (c *VideoCapture) OpenDefault(cs ColorSpace) (StereoDimensions, error) {
	return c.OpenMode(DefaultMode, cs)
}

func (c *VideoCapture) OpenMode(mode Mode, cs ColorSpace) (dims StereoDimensions, err error) {
	if !mode.Valid() {
		return dims, ErrInvalidMode
	}
	if int(cs) >= len(colorSpaceNames) {
		return dims, fmt.Errorf("%w: unknown color space %d", ErrInvalidMode, byte(cs))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != Closed {
		return dims, ErrAlreadyOpen
	}

	if err = acquire(c); err != nil {
		return dims, err
	}
	defer func() {
		if err != nil {
			release(c)
		}
	}()

	dev, err := c.find()
	if err != nil {
		if !errors.Is(err, ErrDeviceNotFound) {
			err = fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
		}
		return dims, err
	}
	defer func() {
		if err != nil {
			_ = dev.Close()
		}
	}()

	dims = mode.Dimensions()

	if err = dev.SetMode(dims.Width, dims.Height, mode.FrameRate()); err != nil {
		if !errors.Is(err, ErrInvalidMode) {
			err = fmt.Errorf("%w: %s: %w", ErrInvalidMode, mode, err)
		}
		return StereoDimensions{}, err
	}

	ranges := make(map[Control]Range, len(Controls))
	for _, ctrl := range Controls {
		r, err := dev.QueryControl(ctrl)
		if err != nil {
			log.Debug().Err(err).Stringer("control", ctrl).Msg("[zed] query control")
			continue
		}
		ranges[ctrl] = r
	}

	_, ledErr := dev.LED()

	c.ctrl.Lock()
	c.dev = dev
	c.mode = mode
	c.colorSpace = cs
	c.dims = dims
	c.ranges = ranges
	c.hasLED = ledErr == nil
	c.frame = make([]byte, dims.FrameSize(cs))
	if cs == YUV {
		c.raw = c.frame
	} else {
		c.raw = make([]byte, dims.FrameSize(YUV))
	}
	c.state.Store(int32(Opened))
	c.ctrl.Unlock()

	log.Debug().Str("id", dev.ID()).Str("name", dev.Name()).Stringer("mode", mode).
		Stringer("color", cs).Msg("[zed] open")

	return dims, nil
}

// Close releases the camera. Streaming must be stopped first.
func (c *VideoCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case Closed:
		return ErrNotOpen
	case Streaming:
		return fmt.Errorf("zed: close: %w", ErrAlreadyStreaming)
	}

	c.ctrl.Lock()
	err := c.dev.Close()
	c.dev = nil
	c.ranges = nil
	c.frame = nil
	c.raw = nil
	c.state.Store(int32(Closed))
	c.ctrl.Unlock()

	release(c)

	log.Debug().Msg("[zed] close")

	return err
}

// Start begins streaming, onFrame is called once per captured frame in capture order
func (c *VideoCapture) Start(onFrame FrameFunc) error {
	if onFrame == nil {
		return errors.New("zed: nil frame callback")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case Closed:
		return ErrNotOpen
	case Streaming:
		return ErrAlreadyStreaming
	}

	if err := c.dev.StreamOn(); err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.err = nil
	c.frames.Store(0)
	c.dropped.Store(0)
	c.timeouts.Store(0)
	c.failed.Store(false)
	c.state.Store(int32(Streaming))

	go c.run(onFrame)

	return nil
}

// Stop halts delivery and waits for the capture goroutine, no callback runs
// after it returns. Returns the capture error if streaming died on its own.
func (c *VideoCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != Streaming {
		return ErrNotStreaming
	}

	close(c.stop)
	<-c.done

	c.ctrl.Lock()
	err := c.dev.StreamOff()
	c.state.Store(int32(Opened))
	c.ctrl.Unlock()

	log.Debug().Uint64("frames", c.frames.Load()).Uint64("dropped", c.dropped.Load()).Msg("[zed] stop")

	return errors.Join(c.err, err)
}

func (c *VideoCapture) run(onFrame FrameFunc) {
	defer close(c.done)

	height, width := c.dims.Height, c.dims.Width
	channels := c.colorSpace.BytesPerPixel()
	timeout := 4 * time.Second / time.Duration(c.mode.FrameRate())

	var last uint32
	var started bool

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		n, seq, err := c.dev.Capture(c.raw, timeout)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				c.timeouts.Add(1)
				continue
			}
			log.Error().Err(err).Msg("[zed] capture")
			c.err = err
			c.failed.Store(true)
			return
		}

		// partial transfers happen when USB bandwidth is short
		if n != len(c.raw) {
			c.dropped.Add(1)
			log.Trace().Int("size", n).Msg("[zed] short frame")
			continue
		}

		if started && seq-last > 1 {
			lost := uint64(seq - last - 1)
			c.dropped.Add(lost)
			log.Debug().Uint64("lost", lost).Uint32("seq", seq).Msg("[zed] frames overwritten")
		}
		started = true
		last = seq

		if c.colorSpace != YUV {
			Convert(c.frame, c.raw, c.colorSpace)
		}

		c.frames.Add(1)
		onFrame(c.frame, height, width, channels)
	}
}

func (c *VideoCapture) State() State {
	return State(c.state.Load())
}

func (c *VideoCapture) Stats() Stats {
	return Stats{
		Frames:   c.frames.Load(),
		Dropped:  c.dropped.Load(),
		Timeouts: c.timeouts.Load(),
		Failed:   c.failed.Load(),
	}
}

// Mode returns the negotiated mode and color space
func (c *VideoCapture) Mode() (Mode, ColorSpace, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()
	if c.dev == nil {
		return Mode{}, 0, ErrNotOpen
	}
	return c.mode, c.colorSpace, nil
}

func (c *VideoCapture) Dimensions() (StereoDimensions, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()
	if c.dev == nil {
		return StereoDimensions{}, ErrNotOpen
	}
	return c.dims, nil
}

func (c *VideoCapture) DeviceID() (string, error) {
	return c.identity(Device.ID)
}

func (c *VideoCapture) DeviceName() (string, error) {
	return c.identity(Device.Name)
}

func (c *VideoCapture) SerialNumber() (string, error) {
	return c.identity(Device.SerialNumber)
}

func (c *VideoCapture) identity(f func(Device) string) (string, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()
	if c.dev == nil {
		return "", ErrNotOpen
	}
	return f(c.dev), nil
}
