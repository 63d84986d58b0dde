package calib

import (
	"errors"
	"math"
	"sync"
)

// Remap samples src at (mapX, mapY) for every dst pixel with bilinear
// interpolation. Samples outside src read as zero. Both images are
// width x height with channels bytes per pixel.
func Remap(dst, src []byte, width, height, channels int, mapX, mapY []float32) {
	stride := width * channels
	remap(dst, stride, src, stride, width, height, channels, mapX, mapY)
}

func remap(dst []byte, dstStride int, src []byte, srcStride int, width, height, channels int, mapX, mapY []float32) {
	for y := 0; y < height; y++ {
		row := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			i := y*width + x
			fx, fy := float64(mapX[i]), float64(mapY[i])

			out := row[x*channels : x*channels+channels]

			if math.IsNaN(fx) || math.IsNaN(fy) {
				clear(out)
				continue
			}

			x0, y0 := math.Floor(fx), math.Floor(fy)
			ax, ay := fx-x0, fy-y0
			ix, iy := int(x0), int(y0)

			w00 := (1 - ax) * (1 - ay)
			w01 := ax * (1 - ay)
			w10 := (1 - ax) * ay
			w11 := ax * ay

			for c := 0; c < channels; c++ {
				v := w00*sample(src, srcStride, width, height, channels, ix, iy, c) +
					w01*sample(src, srcStride, width, height, channels, ix+1, iy, c) +
					w10*sample(src, srcStride, width, height, channels, ix, iy+1, c) +
					w11*sample(src, srcStride, width, height, channels, ix+1, iy+1, c)
				out[c] = clamp(v)
			}
		}
	}
}

func sample(src []byte, stride, width, height, channels, x, y, c int) float64 {
	if x < 0 || y < 0 || x >= width || y >= height {
		return 0
	}
	return float64(src[y*stride+x*channels+c])
}

func clamp(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v + 0.5)
}

// Rectify remaps a side by side frame, left eye then right eye on each row.
// dst and src are (2 * eye width) x height with channels bytes per pixel.
func (m *Maps) Rectify(dst, src []byte, channels int) error {
	w, h := m.Left.Width, m.Left.Height
	stride := 2 * w * channels

	if len(src) < stride*h || len(dst) < stride*h {
		return errors.New("calib: frame size does not match maps")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		remap(dst, stride, src, stride, w, h, channels, m.Left.X, m.Left.Y)
		wg.Done()
	}()
	go func() {
		off := w * channels
		remap(dst[off:], stride, src[off:], stride, w, h, channels, m.Right.X, m.Right.Y)
		wg.Done()
	}()
	wg.Wait()

	return nil
}
