package device

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// USB describes the USB device behind a video node as seen in sysfs
type USB struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
}

var SysfsRoot = "/sys/class/video4linux"

// ReadUSB resolves /dev/videoN to the parent USB device and reads its
// descriptor strings. The video node links to a USB interface directory,
// the device attributes live one level up.
func ReadUSB(path string) (*USB, error) {
	link := filepath.Join(SysfsRoot, filepath.Base(path), "device")

	dir, err := filepath.EvalSymlinks(link)
	if err != nil {
		return nil, err
	}

	// interface directories look like 1-2:1.0
	if strings.Contains(filepath.Base(dir), ":") {
		dir = filepath.Dir(dir)
	}

	readString := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	readUint16Hex := func(name string) (uint16, error) {
		val, err := strconv.ParseUint(readString(name), 16, 16)
		return uint16(val), err
	}

	usb := &USB{
		Manufacturer: readString("manufacturer"),
		Product:      readString("product"),
		Serial:       readString("serial"),
	}

	if usb.VendorID, err = readUint16Hex("idVendor"); err != nil {
		return nil, err
	}
	if usb.ProductID, err = readUint16Hex("idProduct"); err != nil {
		return nil, err
	}

	return usb, nil
}
