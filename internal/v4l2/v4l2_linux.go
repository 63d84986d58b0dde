//go:build linux && (386 || arm || amd64 || arm64)

package v4l2

import (
	"net/http"

	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/pkg/v4l2/device"
	"github.com/zedopen/zedcapture/pkg/zed"
)

func Init() {
	api.HandleFunc("api/v4l2", apiV4L2)
}

type Source struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Driver  string    `json:"driver"`
	BusInfo string    `json:"bus_info,omitempty"`
	Serial  string    `json:"serial,omitempty"`
	ZED     bool      `json:"zed"`
	Formats []*Format `json:"formats,omitempty"`
}

type Format struct {
	Name  string  `json:"name"`
	Sizes []*Size `json:"sizes,omitempty"`
}

type Size struct {
	Width  uint32   `json:"width"`
	Height uint32   `json:"height"`
	FPS    []uint32 `json:"fps,omitempty"`
}

func apiV4L2(w http.ResponseWriter, r *http.Request) {
	paths, err := device.List()
	if err != nil {
		api.Error(w, err)
		return
	}

	sources := []*Source{}

	for _, path := range paths {
		if source := readSource(path); source != nil {
			sources = append(sources, source)
		}
	}

	api.ResponseJSON(w, sources)
}

// readSource describes a capture node, metadata nodes return nil
func readSource(path string) *Source {
	dev, err := device.Open(path)
	if err != nil {
		return nil
	}
	defer dev.Close()

	c, err := dev.Capability()
	if err != nil || !c.Capture {
		return nil
	}

	source := &Source{Path: path, Name: c.Card, Driver: c.Driver, BusInfo: c.BusInfo}

	if usb, err := device.ReadUSB(path); err == nil {
		source.Serial = usb.Serial
		source.ZED = usb.VendorID == zed.VendorStereolabs
		if usb.Product != "" {
			source.Name = usb.Product
		}
	}

	formats, _ := dev.ListFormats()
	for _, fourCC := range formats {
		format := &Format{Name: device.FormatName(fourCC)}

		sizes, _ := dev.ListSizes(fourCC)
		for _, size := range sizes {
			fps, _ := dev.ListFrameRates(fourCC, size[0], size[1])
			format.Sizes = append(format.Sizes, &Size{Width: size[0], Height: size[1], FPS: fps})
		}

		source.Formats = append(source.Formats, format)
	}

	return source
}
