//go:build linux && (386 || arm || amd64 || arm64)

package device

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var ErrTimeout = errors.New("v4l2: capture timeout")

type Device struct {
	path string
	fd   int
	bufs [][]byte
}

func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &Device{path: path, fd: fd}, nil
}

func (d *Device) Path() string {
	return d.path
}

const buffersCount = 4

type Capability struct {
	Driver  string
	Card    string
	BusInfo string
	Version string

	// Capture is true when the node can stream video capture buffers
	Capture bool
}

func (d *Device) Capability() (*Capability, error) {
	c := v4l2_capability{}
	if err := ioctl(d.fd, VIDIOC_QUERYCAP, unsafe.Pointer(&c)); err != nil {
		return nil, err
	}

	caps := c.capabilities
	if caps&V4L2_CAP_DEVICE_CAPS != 0 {
		caps = c.device_caps
	}

	return &Capability{
		Driver:  str(c.driver[:]),
		Card:    str(c.card[:]),
		BusInfo: str(c.bus_info[:]),
		Version: fmt.Sprintf("%d.%d.%d", byte(c.version>>16), byte(c.version>>8), byte(c.version)),
		Capture: caps&V4L2_CAP_VIDEO_CAPTURE != 0 && caps&V4L2_CAP_STREAMING != 0,
	}, nil
}

func (d *Device) ListFormats() ([]uint32, error) {
	var items []uint32

	for i := uint32(0); ; i++ {
		fd := v4l2_fmtdesc{
			index: i,
			typ:   V4L2_BUF_TYPE_VIDEO_CAPTURE,
		}
		if err := ioctl(d.fd, VIDIOC_ENUM_FMT, unsafe.Pointer(&fd)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		items = append(items, fd.pixelformat)
	}

	return items, nil
}

func (d *Device) ListSizes(pixFmt uint32) ([][2]uint32, error) {
	var items [][2]uint32

	for i := uint32(0); ; i++ {
		fs := v4l2_frmsizeenum{
			index:        i,
			pixel_format: pixFmt,
		}
		if err := ioctl(d.fd, VIDIOC_ENUM_FRAMESIZES, unsafe.Pointer(&fs)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		if fs.typ != V4L2_FRMSIZE_TYPE_DISCRETE {
			continue
		}

		items = append(items, [2]uint32{fs.discrete.width, fs.discrete.height})
	}

	return items, nil
}

func (d *Device) ListFrameRates(pixFmt, width, height uint32) ([]uint32, error) {
	var items []uint32

	for i := uint32(0); ; i++ {
		fi := v4l2_frmivalenum{
			index:        i,
			pixel_format: pixFmt,
			width:        width,
			height:       height,
		}
		if err := ioctl(d.fd, VIDIOC_ENUM_FRAMEINTERVALS, unsafe.Pointer(&fi)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		if fi.typ != V4L2_FRMIVAL_TYPE_DISCRETE || fi.discrete.numerator != 1 {
			continue
		}

		items = append(items, fi.discrete.denominator)
	}

	return items, nil
}

// SetFormat asks the driver for a size and pixel format and returns the size it
// actually selected. Drivers silently pick the nearest supported size.
func (d *Device) SetFormat(width, height, pixFmt uint32) (uint32, uint32, error) {
	f := v4l2_format{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		pix: v4l2_pix_format{
			width:       width,
			height:      height,
			pixelformat: pixFmt,
			field:       V4L2_FIELD_NONE,
			colorspace:  V4L2_COLORSPACE_DEFAULT,
		},
	}
	if err := ioctl(d.fd, VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return 0, 0, err
	}
	if f.pix.pixelformat != pixFmt {
		return 0, 0, fmt.Errorf("v4l2: unsupported pixel format %08x", pixFmt)
	}
	return f.pix.width, f.pix.height, nil
}

func (d *Device) SetParam(fps uint32) error {
	p := v4l2_streamparm{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		capture: v4l2_captureparm{
			timeperframe: v4l2_fract{numerator: 1, denominator: fps},
		},
	}
	if err := ioctl(d.fd, VIDIOC_S_PARM, unsafe.Pointer(&p)); err != nil {
		return err
	}
	if tpf := p.capture.timeperframe; tpf.numerator != 0 && tpf.denominator/tpf.numerator != fps {
		return fmt.Errorf("v4l2: unsupported frame rate %d", fps)
	}
	return nil
}

func (d *Device) StreamOn() (err error) {
	rb := v4l2_requestbuffers{
		count:  buffersCount,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err = ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err != nil {
		return err
	}

	d.bufs = make([][]byte, rb.count)
	for i := uint32(0); i < rb.count; i++ {
		qb := v4l2_buffer{
			index:  i,
			typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
			memory: V4L2_MEMORY_MMAP,
		}
		if err = ioctl(d.fd, VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
			return d.unmap(err)
		}

		if d.bufs[i], err = unix.Mmap(
			d.fd, int64(qb.offset), int(qb.length), unix.PROT_READ, unix.MAP_SHARED,
		); err != nil {
			return d.unmap(err)
		}

		if err = ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&qb)); err != nil {
			return d.unmap(err)
		}
	}

	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err = ioctl(d.fd, VIDIOC_STREAMON, unsafe.Pointer(&typ)); err != nil {
		return d.unmap(err)
	}
	return nil
}

func (d *Device) StreamOff() (err error) {
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	err = ioctl(d.fd, VIDIOC_STREAMOFF, unsafe.Pointer(&typ))
	return d.unmap(err)
}

// unmap releases mmap buffers and the driver queue, keeping the first error
func (d *Device) unmap(err error) error {
	for i := range d.bufs {
		if d.bufs[i] != nil {
			_ = unix.Munmap(d.bufs[i])
		}
	}
	d.bufs = nil

	rb := v4l2_requestbuffers{
		count:  0,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err2 := ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err == nil {
		err = err2
	}
	return err
}

// Capture waits up to timeout for the next filled buffer, copies it into dst and
// gives the buffer back to the driver. Returns the number of copied bytes and the
// driver sequence number of the frame.
func (d *Device) Capture(dst []byte, timeout time.Duration) (int, uint32, error) {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}

	for {
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, 0, err
		}
		if n == 0 {
			return 0, 0, ErrTimeout
		}

		dec := v4l2_buffer{
			typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
			memory: V4L2_MEMORY_MMAP,
		}
		if err = ioctl(d.fd, VIDIOC_DQBUF, unsafe.Pointer(&dec)); err != nil {
			if err == unix.EAGAIN {
				continue
			}
			return 0, 0, err
		}

		n = copy(dst, d.bufs[dec.index][:dec.bytesused])

		enc := v4l2_buffer{
			typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
			memory: V4L2_MEMORY_MMAP,
			index:  dec.index,
		}
		if err = ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&enc)); err != nil {
			return 0, 0, err
		}

		return n, dec.sequence, nil
	}
}

func (d *Device) Close() error {
	return unix.Close(d.fd)
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, err := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if err != 0 {
		return err
	}
	return nil
}

func str(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
