package zed

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Get reads the current value from the device
func (c *VideoCapture) Get(ctrl Control) (int, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()

	if _, err := c.rangeLocked(ctrl); err != nil {
		return 0, err
	}
	return c.dev.GetControl(ctrl)
}

// Set writes a value inside the device reported range. While auto white balance
// is on the device ignores manual white balance writes, that is not an error.
func (c *VideoCapture) Set(ctrl Control, value int) error {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()

	r, err := c.rangeLocked(ctrl)
	if err != nil {
		return err
	}

	if !r.Contains(value) {
		return fmt.Errorf("%w: %s=%d not in %d..%d", ErrOutOfRange, ctrl, value, r.Min, r.Max)
	}

	if err = c.dev.SetControl(ctrl, value); err != nil {
		if ctrl == WhiteBalanceTemperature && errors.Is(err, ErrBusy) {
			log.Debug().Int("value", value).Msg("[zed] white balance ignored while auto is on")
			return nil
		}
		return fmt.Errorf("zed: set %s: %w", ctrl, err)
	}

	return nil
}

// Default returns the factory value cached at open
func (c *VideoCapture) Default(ctrl Control) (int, error) {
	r, err := c.Range(ctrl)
	return r.Default, err
}

// Reset sets the control back to its factory value
func (c *VideoCapture) Reset(ctrl Control) error {
	r, err := c.Range(ctrl)
	if err != nil {
		return err
	}
	return c.Set(ctrl, r.Default)
}

func (c *VideoCapture) Range(ctrl Control) (Range, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()
	return c.rangeLocked(ctrl)
}

// ResetControls resets every control the device has. Auto white balance goes
// first so the manual white balance reset is not swallowed.
func (c *VideoCapture) ResetControls() error {
	var errs []error
	for _, ctrl := range []Control{AutoWhiteBalanceTemperature, Brightness, Contrast, Hue,
		Saturation, Sharpness, Gamma, WhiteBalanceTemperature} {
		if err := c.Reset(ctrl); err != nil && !errors.Is(err, ErrUnsupported) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *VideoCapture) rangeLocked(ctrl Control) (Range, error) {
	if c.dev == nil {
		return Range{}, ErrNotOpen
	}
	r, ok := c.ranges[ctrl]
	if !ok {
		return Range{}, fmt.Errorf("%w: %s", ErrUnsupported, ctrl)
	}
	return r, nil
}

func (c *VideoCapture) GetBrightness() (int, error)     { return c.Get(Brightness) }
func (c *VideoCapture) SetBrightness(v int) error       { return c.Set(Brightness, v) }
func (c *VideoCapture) DefaultBrightness() (int, error) { return c.Default(Brightness) }
func (c *VideoCapture) ResetBrightness() error          { return c.Reset(Brightness) }
func (c *VideoCapture) BrightnessRange() (Range, error) { return c.Range(Brightness) }

func (c *VideoCapture) GetContrast() (int, error)     { return c.Get(Contrast) }
func (c *VideoCapture) SetContrast(v int) error       { return c.Set(Contrast, v) }
func (c *VideoCapture) DefaultContrast() (int, error) { return c.Default(Contrast) }
func (c *VideoCapture) ResetContrast() error          { return c.Reset(Contrast) }
func (c *VideoCapture) ContrastRange() (Range, error) { return c.Range(Contrast) }

func (c *VideoCapture) GetHue() (int, error)     { return c.Get(Hue) }
func (c *VideoCapture) SetHue(v int) error       { return c.Set(Hue, v) }
func (c *VideoCapture) DefaultHue() (int, error) { return c.Default(Hue) }
func (c *VideoCapture) ResetHue() error          { return c.Reset(Hue) }
func (c *VideoCapture) HueRange() (Range, error) { return c.Range(Hue) }

func (c *VideoCapture) GetSaturation() (int, error)     { return c.Get(Saturation) }
func (c *VideoCapture) SetSaturation(v int) error       { return c.Set(Saturation, v) }
func (c *VideoCapture) DefaultSaturation() (int, error) { return c.Default(Saturation) }
func (c *VideoCapture) ResetSaturation() error          { return c.Reset(Saturation) }
func (c *VideoCapture) SaturationRange() (Range, error) { return c.Range(Saturation) }

func (c *VideoCapture) GetSharpness() (int, error)     { return c.Get(Sharpness) }
func (c *VideoCapture) SetSharpness(v int) error       { return c.Set(Sharpness, v) }
func (c *VideoCapture) DefaultSharpness() (int, error) { return c.Default(Sharpness) }
func (c *VideoCapture) ResetSharpness() error          { return c.Reset(Sharpness) }
func (c *VideoCapture) SharpnessRange() (Range, error) { return c.Range(Sharpness) }

func (c *VideoCapture) GetGamma() (int, error)     { return c.Get(Gamma) }
func (c *VideoCapture) SetGamma(v int) error       { return c.Set(Gamma, v) }
func (c *VideoCapture) DefaultGamma() (int, error) { return c.Default(Gamma) }
func (c *VideoCapture) ResetGamma() error          { return c.Reset(Gamma) }
func (c *VideoCapture) GammaRange() (Range, error) { return c.Range(Gamma) }

func (c *VideoCapture) GetWhiteBalanceTemperature() (int, error) {
	return c.Get(WhiteBalanceTemperature)
}

func (c *VideoCapture) SetWhiteBalanceTemperature(v int) error {
	return c.Set(WhiteBalanceTemperature, v)
}

func (c *VideoCapture) DefaultWhiteBalanceTemperature() (int, error) {
	return c.Default(WhiteBalanceTemperature)
}

func (c *VideoCapture) ResetWhiteBalanceTemperature() error {
	return c.Reset(WhiteBalanceTemperature)
}

func (c *VideoCapture) WhiteBalanceTemperatureRange() (Range, error) {
	return c.Range(WhiteBalanceTemperature)
}

func (c *VideoCapture) GetAutoWhiteBalanceTemperature() (bool, error) {
	v, err := c.Get(AutoWhiteBalanceTemperature)
	return v != 0, err
}

func (c *VideoCapture) SetAutoWhiteBalanceTemperature(on bool) error {
	return c.Set(AutoWhiteBalanceTemperature, btoi(on))
}

func (c *VideoCapture) DefaultAutoWhiteBalanceTemperature() (bool, error) {
	v, err := c.Default(AutoWhiteBalanceTemperature)
	return v != 0, err
}

func (c *VideoCapture) ResetAutoWhiteBalanceTemperature() error {
	return c.Reset(AutoWhiteBalanceTemperature)
}

// IsLEDOn reports false for cameras without an indicator LED
func (c *VideoCapture) IsLEDOn() (bool, error) {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()

	if c.dev == nil {
		return false, ErrNotOpen
	}
	if !c.hasLED {
		return false, nil
	}
	return c.dev.LED()
}

func (c *VideoCapture) TurnOnLED() error {
	return c.setLED(func(bool) bool { return true })
}

func (c *VideoCapture) TurnOffLED() error {
	return c.setLED(func(bool) bool { return false })
}

func (c *VideoCapture) ToggleLED() error {
	return c.setLED(func(on bool) bool { return !on })
}

func (c *VideoCapture) setLED(next func(on bool) bool) error {
	c.ctrl.Lock()
	defer c.ctrl.Unlock()

	if c.dev == nil {
		return ErrNotOpen
	}
	if !c.hasLED {
		return nil
	}

	on, err := c.dev.LED()
	if err != nil {
		return err
	}
	if want := next(on); want != on {
		return c.dev.SetLED(want)
	}
	return nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
