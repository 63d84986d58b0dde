package mjpeg

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	"github.com/zedopen/zedcapture/pkg/zed"
)

// NewImage wraps a raw frame as image.Image without copying where the
// layout allows it. YUV frames are unpacked to planar 4:2:2, BGR frames are
// swapped to RGBA.
func NewImage(frame []byte, width, height int, cs zed.ColorSpace) image.Image {
	rect := image.Rect(0, 0, width, height)

	switch cs {
	case zed.Greyscale:
		return &image.Gray{Pix: frame, Stride: width, Rect: rect}

	case zed.YUV:
		img := image.NewYCbCr(rect, image.YCbCrSubsampleRatio422)
		// Y0 Cb Y1 Cr
		for i, j := 0, 0; i+3 < len(frame) && j < len(img.Cb); i, j = i+4, j+1 {
			img.Y[j*2] = frame[i]
			img.Cb[j] = frame[i+1]
			img.Y[j*2+1] = frame[i+2]
			img.Cr[j] = frame[i+3]
		}
		return img

	case zed.RGB, zed.BGR:
		img := image.NewRGBA(rect)
		ri, bi := 0, 2
		if cs == zed.BGR {
			ri, bi = 2, 0
		}
		for i, j := 0, 0; i+2 < len(frame); i, j = i+3, j+4 {
			img.Pix[j] = frame[i+ri]
			img.Pix[j+1] = frame[i+1]
			img.Pix[j+2] = frame[i+bi]
			img.Pix[j+3] = 0xFF
		}
		return img
	}

	return nil
}

// Encode writes one frame as JPEG, quality 0 means jpeg.DefaultQuality
func Encode(w io.Writer, frame []byte, width, height int, cs zed.ColorSpace, quality int) error {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	if len(frame) < width*height*cs.BytesPerPixel() {
		return io.ErrShortBuffer
	}
	img := NewImage(frame, width, height, cs)
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

func EncodeBytes(frame []byte, width, height int, cs zed.ColorSpace, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := Encode(buf, frame, width, height, cs, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
