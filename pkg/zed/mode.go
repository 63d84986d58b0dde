package zed

import (
	"fmt"
	"slices"
)

type modeInfo struct {
	eyeWidth   int
	height     int
	frameRates []FrameRate
}

var catalog = [...]modeInfo{
	HD2K:   {2208, 1242, []FrameRate{FPS15}},
	HD1080: {1920, 1080, []FrameRate{FPS15, FPS30}},
	HD720:  {1280, 720, []FrameRate{FPS15, FPS30, FPS60}},
	VGA:    {672, 376, []FrameRate{FPS15, FPS30, FPS60, FPS100}},
}

func lookup(res Resolution) *modeInfo {
	if int(res) >= len(catalog) {
		panic(fmt.Sprintf("zed: unknown resolution %d", byte(res)))
	}
	return &catalog[res]
}

// Dimensions returns the combined stereo frame size for a resolution.
// Panics on a value outside the Resolution constants.
func Dimensions(res Resolution) StereoDimensions {
	info := lookup(res)
	return StereoDimensions{Width: info.eyeWidth * 2, Height: info.height}
}

// FrameRates returns legal frame rates for a resolution in ascending order
func FrameRates(res Resolution) []FrameRate {
	return slices.Clone(lookup(res).frameRates)
}

// Validate checks a resolution and frame rate pair against the catalog.
// Panics on a value outside the Resolution constants.
func Validate(res Resolution, fps FrameRate) error {
	if slices.Contains(lookup(res).frameRates, fps) {
		return nil
	}
	return fmt.Errorf("%w: %d fps for %s, available: %v", ErrInvalidFrameRate, fps, res, lookup(res).frameRates)
}

// Mode is a validated resolution and frame rate pair. The zero Mode is invalid.
// Outside this package a Mode can only come from the predeclared values or
// from NewMode, so holding one means the pair is legal.
type Mode struct {
	res Resolution
	fps FrameRate
	ok  bool
}

var (
	ModeHD2Kx15   = Mode{HD2K, FPS15, true}
	ModeHD1080x15 = Mode{HD1080, FPS15, true}
	ModeHD1080x30 = Mode{HD1080, FPS30, true}
	ModeHD720x15  = Mode{HD720, FPS15, true}
	ModeHD720x30  = Mode{HD720, FPS30, true}
	ModeHD720x60  = Mode{HD720, FPS60, true}
	ModeVGAx15    = Mode{VGA, FPS15, true}
	ModeVGAx30    = Mode{VGA, FPS30, true}
	ModeVGAx60    = Mode{VGA, FPS60, true}
	ModeVGAx100   = Mode{VGA, FPS100, true}
)

// DefaultMode is used by OpenDefault
var DefaultMode = ModeHD720x30

func NewMode(res Resolution, fps FrameRate) (Mode, error) {
	if int(res) >= len(catalog) {
		return Mode{}, fmt.Errorf("%w: unknown resolution %d", ErrInvalidMode, byte(res))
	}
	if err := Validate(res, fps); err != nil {
		return Mode{}, err
	}
	return Mode{res, fps, true}, nil
}

// Modes lists every legal pair, e.g. for introspection endpoints
func Modes() []Mode {
	var modes []Mode
	for res := range catalog {
		for _, fps := range catalog[res].frameRates {
			modes = append(modes, Mode{Resolution(res), fps, true})
		}
	}
	return modes
}

func (m Mode) Resolution() Resolution { return m.res }
func (m Mode) FrameRate() FrameRate   { return m.fps }
func (m Mode) Valid() bool            { return m.ok }

func (m Mode) Dimensions() StereoDimensions {
	return Dimensions(m.res)
}

func (m Mode) String() string {
	if !m.ok {
		return "invalid"
	}
	return fmt.Sprintf("%s@%d", m.res, m.fps)
}
