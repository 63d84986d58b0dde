package calib

import (
	"fmt"
	"math"

	"github.com/zedopen/zedcapture/pkg/zed"
	"gonum.org/v1/gonum/mat"
)

const stereoSection = "STEREO"

// Camera is a pinhole lens with radial (k1, k2, k3) and tangential (p1, p2) distortion
type Camera struct {
	Fx, Fy, Cx, Cy     float64
	K1, K2, P1, P2, K3 float64
}

func (c Camera) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		c.Fx, 0, c.Cx,
		0, c.Fy, c.Cy,
		0, 0, 1,
	})
}

// Camera reads the lens parameters from section, e.g. LEFT_CAM_HD
func (d *Data) Camera(section string) (Camera, error) {
	var c Camera
	fields := []struct {
		key string
		dst *float64
	}{
		{"fx", &c.Fx}, {"fy", &c.Fy}, {"cx", &c.Cx}, {"cy", &c.Cy},
		{"k1", &c.K1}, {"k2", &c.K2}, {"p1", &c.P1}, {"p2", &c.P2}, {"k3", &c.K3},
	}
	for _, field := range fields {
		v, err := d.Number(section, field.key)
		if err != nil {
			return Camera{}, err
		}
		*field.dst = v
	}
	return c, nil
}

// undistort converts a raw pixel to ideal normalized coordinates
func (c Camera) undistort(u, v float64) (float64, float64) {
	x0 := (u - c.Cx) / c.Fx
	y0 := (v - c.Cy) / c.Fy
	x, y := x0, y0

	for i := 0; i < 5; i++ {
		r2 := x*x + y*y
		icdist := 1 / (1 + ((c.K3*r2+c.K2)*r2+c.K1)*r2)
		if icdist < 0 {
			return x0, y0
		}
		dx := 2*c.P1*x*y + c.P2*(r2+2*x*x)
		dy := c.P1*(r2+2*y*y) + 2*c.P2*x*y
		x = (x0 - dx) * icdist
		y = (y0 - dy) * icdist
	}

	return x, y
}

// distort converts ideal normalized coordinates to a raw pixel
func (c Camera) distort(x, y float64) (float64, float64) {
	x2, y2, xy2 := x*x, y*y, 2*x*y
	r2 := x2 + y2
	kr := 1 + ((c.K3*r2+c.K2)*r2+c.K1)*r2
	u := c.Fx*(x*kr+c.P1*xy2+c.P2*(r2+2*x2)) + c.Cx
	v := c.Fy*(y*kr+c.P1*(r2+2*y2)+c.P2*xy2) + c.Cy
	return u, v
}

// Rodrigues converts a rotation vector (axis * angle) to a rotation matrix
func Rodrigues(v [3]float64) *mat.Dense {
	theta := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if theta < 1e-12 {
		return identity(3)
	}

	kx, ky, kz := v[0]/theta, v[1]/theta, v[2]/theta
	cos, sin := math.Cos(theta), math.Sin(theta)

	k := mat.NewVecDense(3, []float64{kx, ky, kz})

	var r mat.Dense
	r.Outer(1-cos, k, k)

	skew := mat.NewDense(3, 3, []float64{
		0, -kz, ky,
		kz, 0, -kx,
		-ky, kx, 0,
	})
	skew.Scale(sin, skew)
	r.Add(&r, skew)

	for i := 0; i < 3; i++ {
		r.Set(i, i, r.At(i, i)+cos)
	}

	return &r
}

// Rectification is the output of StereoRectify
type Rectification struct {
	R1, R2 *mat.Dense // 3x3 rotation into the common rectified plane
	P1, P2 *mat.Dense // 3x4 projection in the rectified plane
	Q      *mat.Dense // 4x4 disparity to depth
}

// StereoRectify computes rectification for a camera pair, om and t move points
// from the left camera frame to the right one. The principal points of both
// rectified images are equal (zero disparity at infinity) and the images are
// scaled so only valid pixels are visible.
func StereoRectify(left, right Camera, width, height int, om, t [3]float64) *Rectification {
	// rotate each camera half way
	rr := Rodrigues([3]float64{-0.5 * om[0], -0.5 * om[1], -0.5 * om[2]})

	tv := mat.NewVecDense(3, []float64{t[0], t[1], t[2]})

	var th mat.VecDense
	th.MulVec(rr, tv)

	// horizontal or vertical stereo
	idx := 1
	if math.Abs(th.AtVec(0)) > math.Abs(th.AtVec(1)) {
		idx = 0
	}

	c := th.AtVec(idx)
	nt := mat.Norm(&th, 2)

	var uu [3]float64
	if c > 0 {
		uu[idx] = 1
	} else {
		uu[idx] = -1
	}

	// rotation that aligns the baseline with the image axis
	ww := cross([3]float64{th.AtVec(0), th.AtVec(1), th.AtVec(2)}, uu)
	if nw := math.Sqrt(ww[0]*ww[0] + ww[1]*ww[1] + ww[2]*ww[2]); nw > 0 {
		s := math.Acos(math.Abs(c)/nt) / nw
		ww[0], ww[1], ww[2] = ww[0]*s, ww[1]*s, ww[2]*s
	}
	wr := Rodrigues(ww)

	var r1, r2 mat.Dense
	r1.Mul(wr, rr.T())
	r2.Mul(wr, rr)

	var tn mat.VecDense
	tn.MulVec(&r2, tv)

	cams := [2]Camera{left, right}
	rs := [2]*mat.Dense{&r1, &r2}

	fc := (focal(left, idx^1) + focal(right, idx^1)) * 0.5

	nx, ny := float64(width), float64(height)

	// centre the undistorted image corners
	var cc [2][2]float64
	for k := range cams {
		var sx, sy float64
		for i := 0; i < 4; i++ {
			x, y := cams[k].undistort(float64(i%2)*(nx-1), float64(i/2)*(ny-1))
			u, v := homography(rs[k], x, y)
			sx += fc * u
			sy += fc * v
		}
		cc[k][0] = (nx-1)/2 - sx/4
		cc[k][1] = (ny-1)/2 - sy/4
	}

	cc[0][0] = (cc[0][0] + cc[1][0]) * 0.5
	cc[0][1] = (cc[0][1] + cc[1][1]) * 0.5
	cc[1] = cc[0]

	p1 := projection(fc, cc[0])
	p2 := projection(fc, cc[1])
	p2.Set(idx, 3, tn.AtVec(idx)*fc)

	// scale so the valid region of both images fills the frame
	in1 := innerRect(left, &r1, p1, width, height)
	in2 := innerRect(right, &r2, p2, width, height)
	s := math.Max(in1.scale(cc[0], nx, ny), in2.scale(cc[1], nx, ny))

	fc *= s
	for _, p := range []*mat.Dense{p1, p2} {
		p.Set(0, 0, fc)
		p.Set(1, 1, fc)
	}
	p2.Set(idx, 3, p2.At(idx, 3)*s)

	tx := tn.AtVec(idx)
	q := mat.NewDense(4, 4, []float64{
		1, 0, 0, -cc[0][0],
		0, 1, 0, -cc[0][1],
		0, 0, 0, fc,
		0, 0, -1 / tx, (cc[0][idx] - cc[1][idx]) / tx,
	})

	return &Rectification{R1: &r1, R2: &r2, P1: p1, P2: p2, Q: q}
}

// UndistortRectifyMap returns for every pixel of the rectified image the
// position in the raw image of camera c
func UndistortRectifyMap(c Camera, r, p *mat.Dense, width, height int) (mapX, mapY []float32, err error) {
	var rp mat.Dense
	rp.Mul(p.Slice(0, 3, 0, 3), r)

	var ir mat.Dense
	if err = ir.Inverse(&rp); err != nil {
		return nil, nil, fmt.Errorf("calib: rectification is singular: %w", err)
	}

	m := ir.RawMatrix()
	row := func(i int) (float64, float64, float64) {
		return m.Data[i*m.Stride], m.Data[i*m.Stride+1], m.Data[i*m.Stride+2]
	}
	a0, a1, a2 := row(0)
	b0, b1, b2 := row(1)
	c0, c1, c2 := row(2)

	mapX = make([]float32, width*height)
	mapY = make([]float32, width*height)

	for i := 0; i < height; i++ {
		fi := float64(i)
		for j := 0; j < width; j++ {
			fj := float64(j)
			w := 1 / (c0*fj + c1*fi + c2)
			x := (a0*fj + a1*fi + a2) * w
			y := (b0*fj + b1*fi + b2) * w

			u, v := c.distort(x, y)
			mapX[i*width+j] = float32(u)
			mapY[i*width+j] = float32(v)
		}
	}

	return mapX, mapY, nil
}

// EyeMaps are remap tables for one eye, row major width x height
type EyeMaps struct {
	Width  int
	Height int
	X, Y   []float32
	R      *mat.Dense // 3x3
	P      *mat.Dense // 3x4
}

type Maps struct {
	Left  EyeMaps
	Right EyeMaps
	Q     *mat.Dense // 4x4
}

// DeriveRectificationMaps builds undistort and rectify maps for both eyes of a
// camera running at dims. Any missing parameter fails with ErrMissingKey.
func DeriveRectificationMaps(data *Data, dims zed.StereoDimensions) (*Maps, error) {
	res, err := data.CalibrationString(dims)
	if err != nil {
		return nil, err
	}

	left, err := data.Camera("LEFT_CAM_" + res)
	if err != nil {
		return nil, err
	}

	right, err := data.Camera("RIGHT_CAM_" + res)
	if err != nil {
		return nil, err
	}

	var t, om [3]float64
	for i, key := range []string{"Baseline", "TY", "TZ"} {
		if t[i], err = data.Number(stereoSection, key); err != nil {
			return nil, err
		}
	}
	for i, key := range []string{"RX_", "CV_", "RZ_"} {
		if om[i], err = data.Number(stereoSection, key+res); err != nil {
			return nil, err
		}
	}

	width, height := dims.EyeWidth(), dims.Height

	rect := StereoRectify(left, right, width, height, om, t)

	maps := &Maps{
		Left:  EyeMaps{Width: width, Height: height, R: rect.R1, P: rect.P1},
		Right: EyeMaps{Width: width, Height: height, R: rect.R2, P: rect.P2},
		Q:     rect.Q,
	}

	if maps.Left.X, maps.Left.Y, err = UndistortRectifyMap(left, rect.R1, rect.P1, width, height); err != nil {
		return nil, err
	}
	if maps.Right.X, maps.Right.Y, err = UndistortRectifyMap(right, rect.R2, rect.P2, width, height); err != nil {
		return nil, err
	}

	return maps, nil
}

type rect struct {
	x, y, w, h float64
}

// innerRect samples a 9x9 grid of the raw image and returns the largest
// rectangle of the rectified image that only contains valid pixels
func innerRect(c Camera, r, p *mat.Dense, width, height int) rect {
	const n = 9

	var rp mat.Dense
	rp.Mul(p.Slice(0, 3, 0, 3), r)

	x0, x1 := -math.MaxFloat32, math.MaxFloat32
	y0, y1 := -math.MaxFloat32, math.MaxFloat32

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			nx, ny := c.undistort(float64(x*(width-1))/(n-1), float64(y*(height-1))/(n-1))
			u, v := homography(&rp, nx, ny)

			if x == 0 {
				x0 = max(x0, u)
			}
			if x == n-1 {
				x1 = min(x1, u)
			}
			if y == 0 {
				y0 = max(y0, v)
			}
			if y == n-1 {
				y1 = min(y1, v)
			}
		}
	}

	return rect{x: x0, y: y0, w: x1 - x0, h: y1 - y0}
}

// scale needed to push the rect edges to the image border around centre c
func (r rect) scale(c [2]float64, width, height float64) float64 {
	return max(
		c[0]/(c[0]-r.x),
		c[1]/(c[1]-r.y),
		(width-1-c[0])/(r.x+r.w-c[0]),
		(height-1-c[1])/(r.y+r.h-c[1]),
	)
}

func focal(c Camera, axis int) float64 {
	if axis == 0 {
		return c.Fx
	}
	return c.Fy
}

func projection(fc float64, cc [2]float64) *mat.Dense {
	return mat.NewDense(3, 4, []float64{
		fc, 0, cc[0], 0,
		0, fc, cc[1], 0,
		0, 0, 1, 0,
	})
}

// homography maps (x, y, 1) through m and divides by z
func homography(m mat.Matrix, x, y float64) (float64, float64) {
	z := m.At(2, 0)*x + m.At(2, 1)*y + m.At(2, 2)
	if z != 0 {
		z = 1 / z
	} else {
		z = 1
	}
	return (m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2)) * z, (m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)) * z
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
