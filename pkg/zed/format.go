package zed

import (
	"fmt"
	"strings"
)

type Resolution byte

const (
	HD2K   Resolution = iota // 2208 x 1242 per eye, 15 fps
	HD1080                   // 1920 x 1080 per eye, 15 and 30 fps
	HD720                    // 1280 x 720 per eye, 15, 30 and 60 fps
	VGA                      // 672 x 376 per eye, 15, 30, 60 and 100 fps
)

var resolutionNames = [...]string{
	HD2K:   "HD2K",
	HD1080: "HD1080",
	HD720:  "HD720",
	VGA:    "VGA",
}

func (r Resolution) String() string {
	if int(r) < len(resolutionNames) {
		return resolutionNames[r]
	}
	return fmt.Sprintf("Resolution(%d)", byte(r))
}

func ParseResolution(s string) (Resolution, error) {
	for i, name := range resolutionNames {
		if strings.EqualFold(name, s) {
			return Resolution(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown resolution %q", ErrInvalidMode, s)
}

type FrameRate byte

const (
	FPS15  FrameRate = 15  // ~66 ms per frame
	FPS30  FrameRate = 30  // ~33 ms per frame
	FPS60  FrameRate = 60  // ~16 ms per frame
	FPS100 FrameRate = 100 // 10 ms per frame
)

type ColorSpace byte

const (
	YUV       ColorSpace = iota // YUV 4:2:2 packed as Y0 Cb Y1 Cr, 8 bit
	Greyscale                   // 1 channel, 8 bit
	RGB                         // 3 channels, 8 bit
	BGR                         // 3 channels, 8 bit
)

var colorSpaceNames = [...]string{
	YUV:       "YUV",
	Greyscale: "Greyscale",
	RGB:       "RGB",
	BGR:       "BGR",
}

func (c ColorSpace) String() string {
	if int(c) < len(colorSpaceNames) {
		return colorSpaceNames[c]
	}
	return fmt.Sprintf("ColorSpace(%d)", byte(c))
}

func ParseColorSpace(s string) (ColorSpace, error) {
	for i, name := range colorSpaceNames {
		if strings.EqualFold(name, s) {
			return ColorSpace(i), nil
		}
	}
	if strings.EqualFold(s, "gray") || strings.EqualFold(s, "grey") {
		return Greyscale, nil
	}
	return 0, fmt.Errorf("%w: unknown color space %q", ErrInvalidMode, s)
}

// BytesPerPixel is also the channels count passed to FrameFunc
func (c ColorSpace) BytesPerPixel() int {
	switch c {
	case YUV:
		return 2
	case Greyscale:
		return 1
	case RGB, BGR:
		return 3
	}
	panic(fmt.Sprintf("zed: unknown color space %d", byte(c)))
}

// StereoDimensions is the size of the combined frame with left and right
// eyes side by side. Width is always even.
type StereoDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d StereoDimensions) EyeWidth() int {
	return d.Width / 2
}

func (d StereoDimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// FrameSize is the byte length of one delivered frame in color space c
func (d StereoDimensions) FrameSize(c ColorSpace) int {
	return d.Width * d.Height * c.BytesPerPixel()
}
