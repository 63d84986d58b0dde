package zed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/internal/calibration"
	"github.com/zedopen/zedcapture/pkg/mjpeg"
	"github.com/zedopen/zedcapture/pkg/zed"
)

type info struct {
	State      string                `json:"state"`
	ID         string                `json:"id,omitempty"`
	Name       string                `json:"name,omitempty"`
	Serial     string                `json:"serial,omitempty"`
	Resolution string                `json:"resolution,omitempty"`
	FPS        int                   `json:"fps,omitempty"`
	ColorSpace string                `json:"color_space,omitempty"`
	Size       *zed.StereoDimensions `json:"size,omitempty"`
	Stats      zed.Stats             `json:"stats"`
}

func (s *session) info() *info {
	i := &info{State: s.vc.State().String(), Stats: s.vc.Stats()}

	mode, cs, err := s.vc.Mode()
	if err != nil {
		return i
	}

	dims := mode.Dimensions()

	i.ID, _ = s.vc.DeviceID()
	i.Name, _ = s.vc.DeviceName()
	i.Serial, _ = s.vc.SerialNumber()
	i.Resolution = mode.Resolution().String()
	i.FPS = int(mode.FrameRate())
	i.ColorSpace = cs.String()
	i.Size = &dims
	return i
}

func apiZed(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		api.ResponseJSON(w, camera.info())

	case "POST":
		query := r.URL.Query()
		cfg := camera.config()

		if s := query.Get("resolution"); s != "" {
			cfg.Resolution = s
		}
		if s := query.Get("fps"); s != "" {
			fps, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "wrong fps", http.StatusBadRequest)
				return
			}
			cfg.FPS = fps
		}
		if s := query.Get("color_space"); s != "" {
			cfg.ColorSpace = s
		}

		if err := camera.restart(cfg); err != nil {
			api.Error(w, err)
			return
		}

		patchConfig("resolution", cfg.Resolution)
		patchConfig("fps", cfg.FPS)
		patchConfig("color_space", cfg.ColorSpace)

		api.ResponseJSON(w, camera.info())

	case "DELETE":
		if err := camera.stop(); err != nil {
			api.Error(w, err)
			return
		}
		api.ResponseJSON(w, camera.info())

	default:
		http.Error(w, "Method not allowed", http.StatusBadRequest)
	}
}

type modeInfo struct {
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func apiModes(w http.ResponseWriter, r *http.Request) {
	var modes []modeInfo
	for _, mode := range zed.Modes() {
		dims := mode.Dimensions()
		modes = append(modes, modeInfo{
			Resolution: mode.Resolution().String(),
			FPS:        int(mode.FrameRate()),
			Width:      dims.Width,
			Height:     dims.Height,
		})
	}
	api.ResponseJSON(w, modes)
}

type controlInfo struct {
	Value int `json:"value"`
	zed.Range
}

func apiControls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		controls := map[string]*controlInfo{}
		for _, ctrl := range zed.Controls {
			rng, err := camera.vc.Range(ctrl)
			if err != nil {
				continue
			}
			v, err := camera.vc.Get(ctrl)
			if err != nil {
				log.Debug().Err(err).Stringer("control", ctrl).Msg("[zed] get control")
				continue
			}
			controls[ctrl.String()] = &controlInfo{Value: v, Range: rng}
		}

		if len(controls) == 0 && camera.vc.State() == zed.Closed {
			api.Error(w, zed.ErrNotOpen)
			return
		}

		api.ResponseJSON(w, controls)

	case "POST":
		var values map[string]int
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := camera.setControls(values); err != nil {
			api.Error(w, err)
			return
		}

	default:
		http.Error(w, "Method not allowed", http.StatusBadRequest)
	}
}

// setControls validates every name first, applies values in a stable order
// and persists what was applied
func (s *session) setControls(values map[string]int) error {
	for name := range values {
		if _, err := zed.ParseControl(name); err != nil {
			return fmt.Errorf("%w: %s", zed.ErrOutOfRange, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	controls := make(map[string]int, len(s.cfg.Controls)+len(values))
	for k, v := range s.cfg.Controls {
		controls[k] = v
	}

	var err error
	for _, ctrl := range controlOrder {
		v, ok := values[ctrl.String()]
		if !ok {
			continue
		}
		if err = s.vc.Set(ctrl, v); err != nil {
			break
		}
		controls[ctrl.String()] = v
	}

	s.cfg.Controls = controls
	patchConfig("controls", controls)

	return err
}

func apiControlsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusBadRequest)
		return
	}

	if err := camera.resetControls(); err != nil {
		api.Error(w, err)
	}
}

func (s *session) resetControls() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vc.ResetControls(); err != nil {
		return err
	}

	s.cfg.Controls = nil
	patchConfig("controls", nil)
	return nil
}

func apiLED(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
	case "POST":
		if err := camera.setLED(r.URL.Query().Get("on")); err != nil {
			api.Error(w, err)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusBadRequest)
		return
	}

	on, err := camera.vc.IsLEDOn()
	if err != nil {
		api.Error(w, err)
		return
	}

	api.ResponseJSON(w, map[string]bool{"on": on})
}

func (s *session) setLED(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch value {
	case "", "toggle":
		err = s.vc.ToggleLED()
	default:
		var on bool
		if on, err = strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: led %q", zed.ErrOutOfRange, value)
		}
		if on {
			err = s.vc.TurnOnLED()
		} else {
			err = s.vc.TurnOffLED()
		}
	}
	if err != nil {
		return err
	}

	on, err := s.vc.IsLEDOn()
	if err != nil {
		return err
	}

	s.cfg.LED = &on
	patchConfig("led", on)
	return nil
}

const frameTimeout = 5 * time.Second

// checkStreaming writes an error when there are no frames to wait for
func checkStreaming(w http.ResponseWriter) bool {
	if camera.vc.State() != zed.Streaming {
		api.Error(w, zed.ErrNotStreaming)
		return false
	}
	if camera.vc.Stats().Failed {
		http.Error(w, "zed: capture failed, restart the camera", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func apiFrame(w http.ResponseWriter, r *http.Request) {
	if !checkStreaming(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), frameTimeout)
	defer cancel()

	f, err := camera.hub.Next(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}

	if r.URL.Query().Has("rectify") {
		if f, err = rectify(ctx, f); err != nil {
			api.Error(w, err)
			return
		}
	}

	b, err := mjpeg.EncodeBytes(f.Data, f.Width, f.Height, f.ColorSpace, quality(r))
	if err != nil {
		api.Error(w, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(b)))
	h.Set("Cache-Control", "no-cache")

	if _, err = w.Write(b); err != nil {
		log.Debug().Err(err).Caller().Send()
	}
}

func apiStream(w http.ResponseWriter, r *http.Request) {
	if !checkStreaming(w) {
		return
	}

	h := w.Header()
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "close")
	h.Set("Pragma", "no-cache")

	wr := mjpeg.NewWriter(w)
	q := quality(r)

	for {
		f, err := camera.hub.Next(r.Context())
		if err != nil {
			return
		}

		b, err := mjpeg.EncodeBytes(f.Data, f.Width, f.Height, f.ColorSpace, q)
		if err != nil {
			log.Warn().Err(err).Msg("[zed] encode")
			return
		}

		if _, err = wr.Write(b); err != nil {
			return
		}
	}
}

// rectify converts a frame to RGB when needed and remaps both eyes with the
// factory calibration of the open camera
func rectify(ctx context.Context, f *Frame) (*Frame, error) {
	serial, err := camera.vc.SerialNumber()
	if err != nil {
		return nil, err
	}

	dims := zed.StereoDimensions{Width: f.Width, Height: f.Height}

	maps, err := calibration.Maps(ctx, serial, dims)
	if err != nil {
		return nil, err
	}

	src, cs := f.Data, f.ColorSpace
	if cs == zed.YUV {
		src = make([]byte, dims.FrameSize(zed.RGB))
		zed.YUYVToRGB(src, f.Data)
		cs = zed.RGB
	}

	dst := make([]byte, len(src))
	if err = maps.Rectify(dst, src, cs.BytesPerPixel()); err != nil {
		return nil, err
	}

	return &Frame{Data: dst, Width: f.Width, Height: f.Height, ColorSpace: cs, Time: f.Time}, nil
}

func quality(r *http.Request) int {
	if s := r.URL.Query().Get("quality"); s != "" {
		if q, err := strconv.Atoi(s); err == nil && q > 0 && q <= 100 {
			return q
		}
	}
	return camera.config().Quality
}

// patchConfig persists a zed section key, a missing config file only disables persistence
func patchConfig(key string, value any) {
	if err := app.PatchConfig(key, value, "zed"); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("[zed] patch config")
	}
}
