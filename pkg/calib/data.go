package calib

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zedopen/zedcapture/pkg/zed"
)

var (
	ErrNotFound              = errors.New("calib: calibration not found")
	ErrDownloadFailed        = errors.New("calib: download failed")
	ErrParse                 = errors.New("calib: parse error")
	ErrUnsupportedResolution = errors.New("calib: unsupported resolution")
	ErrMissingKey            = errors.New("calib: missing key")
	ErrType                  = errors.New("calib: wrong value type")
)

// Data is factory calibration: section -> key -> value. Read only after Parse.
type Data struct {
	sections map[string]map[string]Value
}

func (d *Data) Get(section, key string) (Value, error) {
	if v, ok := d.sections[section][key]; ok {
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: [%s] %s", ErrMissingKey, section, key)
}

func (d *Data) Int(section, key string) (int64, error) {
	v, err := d.Get(section, key)
	if err != nil {
		return 0, err
	}
	i, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("[%s] %s: %w", section, key, err)
	}
	return i, nil
}

func (d *Data) Float(section, key string) (float64, error) {
	v, err := d.Get(section, key)
	if err != nil {
		return 0, err
	}
	f, err := v.Float()
	if err != nil {
		return 0, fmt.Errorf("[%s] %s: %w", section, key, err)
	}
	return f, nil
}

// Number reads ints and floats alike
func (d *Data) Number(section, key string) (float64, error) {
	v, err := d.Get(section, key)
	if err != nil {
		return 0, err
	}
	return v.Number()
}

// Sections returns section names in sorted order
func (d *Data) Sections() []string {
	names := make([]string, 0, len(d.sections))
	for name := range d.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Data) Keys(section string) []string {
	keys := make([]string, 0, len(d.sections[section]))
	for key := range d.sections[section] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries in all sections
func (d *Data) Len() (n int) {
	for _, keys := range d.sections {
		n += len(keys)
	}
	return
}

// Map returns a copy suitable for JSON
func (d *Data) Map() map[string]map[string]Value {
	m := make(map[string]map[string]Value, len(d.sections))
	for name, keys := range d.sections {
		m[name] = make(map[string]Value, len(keys))
		for key, v := range keys {
			m[name][key] = v
		}
	}
	return m
}

func (d *Data) String() string {
	var sb strings.Builder
	for _, section := range d.Sections() {
		sb.WriteString("\n[" + section + "]\n")
		for _, key := range d.Keys(section) {
			sb.WriteString(key + " = " + d.sections[section][key].String() + "\n")
		}
	}
	return sb.String()
}

// CalibrationString returns the section suffix used for the eye width of dims
func (d *Data) CalibrationString(dims zed.StereoDimensions) (string, error) {
	return CalibrationString(dims)
}

func CalibrationString(dims zed.StereoDimensions) (string, error) {
	switch dims.EyeWidth() {
	case 2208:
		return "2K", nil
	case 1920:
		return "FHD", nil
	case 1280:
		return "HD", nil
	case 672:
		return "VGA", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedResolution, dims)
}

func (d *Data) set(section, key string, v Value) {
	if d.sections == nil {
		d.sections = map[string]map[string]Value{}
	}
	keys := d.sections[section]
	if keys == nil {
		keys = map[string]Value{}
		d.sections[section] = keys
	}
	keys[key] = v
}
