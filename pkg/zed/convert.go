package zed

import (
	"image/color"
)

// Convert fills dst with the packed YUYV frame src in color space cs.
// dst must hold len(src)/2 * cs.BytesPerPixel() bytes.
func Convert(dst, src []byte, cs ColorSpace) {
	switch cs {
	case YUV:
		copy(dst, src)
	case Greyscale:
		YUYVToGrey(dst, src)
	case RGB:
		YUYVToRGB(dst, src)
	case BGR:
		YUYVToBGR(dst, src)
	}
}

// YUYVToGrey keeps the luma samples
func YUYVToGrey(dst, src []byte) {
	for i, j := 0, 0; i+1 < len(src); i, j = i+2, j+1 {
		dst[j] = src[i]
	}
}

func YUYVToRGB(dst, src []byte) {
	yuyvToRGB(dst, src, 0, 2)
}

func YUYVToBGR(dst, src []byte) {
	yuyvToRGB(dst, src, 2, 0)
}

// yuyvToRGB writes 3 byte pixels with red at offset ri and blue at offset bi
func yuyvToRGB(dst, src []byte, ri, bi int) {
	for i, j := 0, 0; i+3 < len(src); i, j = i+4, j+6 {
		y0, cb, y1, cr := src[i], src[i+1], src[i+2], src[i+3]

		r, g, b := color.YCbCrToRGB(y0, cb, cr)
		dst[j+ri], dst[j+1], dst[j+bi] = r, g, b

		r, g, b = color.YCbCrToRGB(y1, cb, cr)
		dst[j+3+ri], dst[j+4], dst[j+3+bi] = r, g, b
	}
}
