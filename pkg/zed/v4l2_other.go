//go:build !(linux && (386 || arm || amd64 || arm64))

package zed

import (
	"fmt"
	"runtime"
)

func FindV4L2() (Device, error) {
	return nil, fmt.Errorf("%w: V4L2 is not available on %s/%s", ErrDeviceNotFound, runtime.GOOS, runtime.GOARCH)
}

func OpenV4L2(path string) (Device, error) {
	return FindV4L2()
}
