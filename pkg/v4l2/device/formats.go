package device

import (
	"encoding/binary"
	"os"
	"sort"
	"strings"
)

const (
	V4L2_PIX_FMT_YUYV  = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	V4L2_PIX_FMT_MJPEG = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24
)

type Format struct {
	FourCC uint32
	Name   string
}

var Formats = []Format{
	{V4L2_PIX_FMT_YUYV, "YUV 4:2:2"},
	{V4L2_PIX_FMT_MJPEG, "Motion-JPEG"},
}

// FormatName returns human name for known formats and raw FourCC for others
func FormatName(fourCC uint32) string {
	for _, format := range Formats {
		if format.FourCC == fourCC {
			return format.Name
		}
	}
	return string(binary.LittleEndian.AppendUint32(nil, fourCC))
}

// List returns /dev/video* paths in numeric order
func List() ([]string, error) {
	files, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "video") {
			paths = append(paths, "/dev/"+file.Name())
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})

	return paths, nil
}
