package zed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	// white and black pixel sharing neutral chroma
	src := []byte{255, 128, 0, 128}

	grey := make([]byte, 2)
	Convert(grey, src, Greyscale)
	require.Equal(t, []byte{255, 0}, grey)

	rgb := make([]byte, 6)
	Convert(rgb, src, RGB)
	require.Equal(t, []byte{255, 255, 255, 0, 0, 0}, rgb)

	yuv := make([]byte, 4)
	Convert(yuv, src, YUV)
	require.Equal(t, src, yuv)
}

func TestConvertBGR(t *testing.T) {
	// saturated red chroma
	src := []byte{82, 90, 82, 240}

	rgb := make([]byte, 6)
	YUYVToRGB(rgb, src)

	bgr := make([]byte, 6)
	YUYVToBGR(bgr, src)

	require.Greater(t, rgb[0], rgb[2])
	for i := 0; i < 6; i += 3 {
		require.Equal(t, rgb[i], bgr[i+2])
		require.Equal(t, rgb[i+1], bgr[i+1])
		require.Equal(t, rgb[i+2], bgr[i])
	}
}
