package zed

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMode      = errors.New("zed: invalid mode")
	ErrInvalidFrameRate = fmt.Errorf("%w: invalid frame rate", ErrInvalidMode)
	ErrDeviceNotFound   = errors.New("zed: device not found")
	ErrAlreadyOpen      = errors.New("zed: already open")
	ErrNotOpen          = errors.New("zed: not open")
	ErrAlreadyStreaming = errors.New("zed: already streaming")
	ErrNotStreaming     = errors.New("zed: not streaming")
	ErrOutOfRange       = errors.New("zed: value out of range")

	// ErrUnsupported is returned by a Device for a control it does not have
	ErrUnsupported = errors.New("zed: unsupported control")
	// ErrBusy is returned by a Device when a control is locked by its auto mode
	ErrBusy = errors.New("zed: control busy")
	// ErrTimeout is returned by Device.Capture when no frame arrived in time
	ErrTimeout = errors.New("zed: capture timeout")
)
