package calib

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zedopen/zedcapture/pkg/zed"
	"gonum.org/v1/gonum/mat"
)

func TestRodrigues(t *testing.T) {
	r := Rodrigues([3]float64{0, 0, math.Pi / 2})
	want := []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	}
	for i, v := range want {
		require.InDelta(t, v, r.At(i/3, i%3), 1e-12)
	}

	require.True(t, mat.Equal(identity(3), Rodrigues([3]float64{})))

	// rotation matrices are orthonormal
	r = Rodrigues([3]float64{0.01, -0.02, 0.003})
	var rrt mat.Dense
	rrt.Mul(r, r.T())
	require.True(t, mat.EqualApprox(identity(3), &rrt, 1e-12))
}

func TestStereoRectifyIdentity(t *testing.T) {
	cam := Camera{Fx: 100, Fy: 100, Cx: 30, Cy: 20}
	const w, h, baseline = 64, 48, 120.0

	rect := StereoRectify(cam, cam, w, h, [3]float64{}, [3]float64{baseline, 0, 0})

	require.True(t, mat.EqualApprox(identity(3), rect.R1, 1e-12))
	require.True(t, mat.EqualApprox(identity(3), rect.R2, 1e-12))

	p1 := mat.NewDense(3, 4, []float64{
		100, 0, 30, 0,
		0, 100, 20, 0,
		0, 0, 1, 0,
	})
	require.True(t, mat.EqualApprox(p1, rect.P1, 1e-6))
	require.InDelta(t, baseline*100, rect.P2.At(0, 3), 1e-6)

	require.InDelta(t, -30, rect.Q.At(0, 3), 1e-6)
	require.InDelta(t, -1/baseline, rect.Q.At(3, 2), 1e-12)

	mapX, mapY, err := UndistortRectifyMap(cam, rect.R1, rect.P1, w, h)
	require.NoError(t, err)
	require.Len(t, mapX, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.InDelta(t, x, mapX[y*w+x], 1e-3)
			require.InDelta(t, y, mapY[y*w+x], 1e-3)
		}
	}
}

func TestStereoRectifyAlignsBaseline(t *testing.T) {
	left := Camera{Fx: 700, Fy: 700, Cx: 640, Cy: 360, K1: -0.17, K2: 0.02}
	right := Camera{Fx: 702, Fy: 701, Cx: 645, Cy: 355, K1: -0.17, K2: 0.02}
	om := [3]float64{0.002, 0.0019, -0.001}
	t3 := [3]float64{119.9, 0.3, -0.2}

	rect := StereoRectify(left, right, 1280, 720, om, t3)

	var tn mat.VecDense
	tn.MulVec(rect.R2, mat.NewVecDense(3, t3[:]))
	require.InDelta(t, 0, tn.AtVec(1), 1e-9)
	require.InDelta(t, 0, tn.AtVec(2), 1e-9)

	// zero disparity: both cameras share the principal point
	require.Equal(t, rect.P1.At(0, 2), rect.P2.At(0, 2))
	require.Equal(t, rect.P1.At(1, 2), rect.P2.At(1, 2))
	require.Equal(t, rect.P1.At(0, 0), rect.P2.At(1, 1))

	mapX, mapY, err := UndistortRectifyMap(right, rect.R2, rect.P2, 1280, 720)
	require.NoError(t, err)

	// alpha 0: every rectified pixel samples inside the raw image
	for _, i := range []int{0, 1279, 719 * 1280, 720*1280 - 1} {
		require.GreaterOrEqual(t, mapX[i], float32(-1))
		require.LessOrEqual(t, mapX[i], float32(1280))
		require.GreaterOrEqual(t, mapY[i], float32(-1))
		require.LessOrEqual(t, mapY[i], float32(720))
	}
}

func conf(res string, drop string) string {
	var sb strings.Builder
	sb.WriteString("[STEREO]\nBaseline = 120\nTY = 0\nTZ = 0\n")
	fmt.Fprintf(&sb, "RX_%s = 0\nCV_%s = 0\nRZ_%s = 0\n", res, res, res)
	for _, side := range []string{"LEFT", "RIGHT"} {
		fmt.Fprintf(&sb, "[%s_CAM_%s]\n", side, res)
		sb.WriteString("fx = 350\nfy = 350\ncx = 335.5\ncy = 187.5\n")
		sb.WriteString("k1 = 0\nk2 = 0\np1 = 0\np2 = 0\nk3 = 0\n")
	}
	return strings.Replace(sb.String(), drop, "", 1)
}

func TestDeriveRectificationMaps(t *testing.T) {
	d, err := Parse(strings.NewReader(conf("VGA", "")))
	require.NoError(t, err)

	dims := zed.Dimensions(zed.VGA)

	maps, err := DeriveRectificationMaps(d, dims)
	require.NoError(t, err)

	for _, eye := range []EyeMaps{maps.Left, maps.Right} {
		require.Equal(t, 672, eye.Width)
		require.Equal(t, 376, eye.Height)
		require.Len(t, eye.X, 672*376)
		require.Len(t, eye.Y, 672*376)
		require.InDelta(t, 100, eye.X[10*672+100], 1e-3)
		require.InDelta(t, 10, eye.Y[10*672+100], 1e-3)
	}

	require.InDelta(t, 120*350, maps.Right.P.At(0, 3), 1e-6)

	_, err = DeriveRectificationMaps(d, zed.Dimensions(zed.HD720))
	require.ErrorIs(t, err, ErrMissingKey)

	_, err = DeriveRectificationMaps(d, zed.StereoDimensions{Width: 100, Height: 100})
	require.ErrorIs(t, err, ErrUnsupportedResolution)

	d, err = Parse(strings.NewReader(conf("VGA", "k3 = 0\n")))
	require.NoError(t, err)

	_, err = DeriveRectificationMaps(d, dims)
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestRemap(t *testing.T) {
	// 2x2 grey image
	src := []byte{
		0, 100,
		200, 40,
	}
	dst := make([]byte, 4)

	// identity
	Remap(dst, src, 2, 2, 1, []float32{0, 1, 0, 1}, []float32{0, 0, 1, 1})
	require.Equal(t, src, dst)

	// centre of all four, then outside, then half outside
	Remap(dst, src, 2, 2, 1,
		[]float32{0.5, -5, 1.5, 0},
		[]float32{0.5, 0, 0, float32(math.NaN())},
	)
	require.Equal(t, []byte{85, 0, 50, 0}, dst)
}

func TestRectify(t *testing.T) {
	// one row, eye width 2, RGB
	src := []byte{
		1, 2, 3, 4, 5, 6, // left
		7, 8, 9, 10, 11, 12, // right
	}
	dst := make([]byte, len(src))

	swap := EyeMaps{Width: 2, Height: 1, X: []float32{1, 0}, Y: []float32{0, 0}}
	keep := EyeMaps{Width: 2, Height: 1, X: []float32{0, 1}, Y: []float32{0, 0}}

	maps := &Maps{Left: swap, Right: keep}
	require.NoError(t, maps.Rectify(dst, src, 3))
	require.Equal(t, []byte{4, 5, 6, 1, 2, 3, 7, 8, 9, 10, 11, 12}, dst)

	require.Error(t, maps.Rectify(dst[:6], src, 3))
}
