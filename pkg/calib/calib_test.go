package calib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zedopen/zedcapture/pkg/zed"
)

const testConf = `
; factory calibration
[STEREO]
Baseline = 63.281
TY = 0.0512
TZ = 0
CV_HD = 0.0019
Foo = bar

[LEFT_CAM_HD]
fx=699
  fy = 699.5
# comment
no equals sign here
`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(testConf))
	require.NoError(t, err)

	require.Equal(t, []string{"LEFT_CAM_HD", "STEREO"}, d.Sections())
	require.Equal(t, []string{"Baseline", "CV_HD", "TY", "TZ"}, d.Keys("STEREO"))

	f, err := d.Float("STEREO", "Baseline")
	require.NoError(t, err)
	require.Equal(t, 63.281, f)

	i, err := d.Int("LEFT_CAM_HD", "fx")
	require.NoError(t, err)
	require.Equal(t, int64(699), i)

	// strict accessors
	_, err = d.Float("LEFT_CAM_HD", "fx")
	require.ErrorIs(t, err, ErrType)
	_, err = d.Int("STEREO", "TY")
	require.ErrorIs(t, err, ErrType)

	n, err := d.Number("LEFT_CAM_HD", "fx")
	require.NoError(t, err)
	require.Equal(t, 699.0, n)

	_, err = d.Get("STEREO", "Foo")
	require.ErrorIs(t, err, ErrMissingKey)
	_, err = d.Get("RIGHT_CAM_HD", "fx")
	require.ErrorIs(t, err, ErrMissingKey)

	require.Equal(t, 6, d.Len())
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader("; only comments\n[STEREO]\n"))
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse(strings.NewReader("<html><body>Not found</body></html>"))
	require.ErrorIs(t, err, ErrParse)
}

func TestString(t *testing.T) {
	d, err := Parse(strings.NewReader("[B]\ny = 2.5\nx = 1\n[A]\nz = -3\n"))
	require.NoError(t, err)
	require.Equal(t, "\n[A]\nz = -3\n\n[B]\nx = 1\ny = 2.5\n", d.String())
}

func TestCalibrationString(t *testing.T) {
	tests := []struct {
		dims zed.StereoDimensions
		want string
	}{
		{zed.StereoDimensions{Width: 4416, Height: 1242}, "2K"},
		{zed.StereoDimensions{Width: 3840, Height: 1080}, "FHD"},
		{zed.StereoDimensions{Width: 2560, Height: 720}, "HD"},
		{zed.StereoDimensions{Width: 1344, Height: 376}, "VGA"},
	}
	for _, test := range tests {
		s, err := CalibrationString(test.dims)
		require.NoError(t, err)
		require.Equal(t, test.want, s)
	}

	_, err := CalibrationString(zed.StereoDimensions{Width: 9999, Height: 100})
	require.ErrorIs(t, err, ErrUnsupportedResolution)
}

func TestSerialDigits(t *testing.T) {
	require.Equal(t, "0037970291", SerialDigits("OV0037970291"))
	require.Equal(t, "12345", SerialDigits("SN 123-45"))
	require.Equal(t, "", SerialDigits("ZED"))
}
