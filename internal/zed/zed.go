package zed

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/api/ws"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/pkg/fake"
	"github.com/zedopen/zedcapture/pkg/zed"
)

type Config struct {
	Device     string         `yaml:"device"` // empty for V4L2 or "fake"
	Resolution string         `yaml:"resolution"`
	FPS        int            `yaml:"fps"`
	ColorSpace string         `yaml:"color_space"`
	Autostart  bool           `yaml:"autostart"`
	Controls   map[string]int `yaml:"controls"`
	LED        *bool          `yaml:"led"`
	Quality    int            `yaml:"jpeg_quality"`
}

func DefaultConfig() Config {
	return Config{
		Resolution: zed.DefaultMode.Resolution().String(),
		FPS:        int(zed.DefaultMode.FrameRate()),
		ColorSpace: zed.BGR.String(),
		Autostart:  true,
	}
}

func Init() {
	var cfg struct {
		Mod Config `yaml:"zed"`
	}

	cfg.Mod = DefaultConfig()

	app.LoadConfig(&cfg)

	log = app.GetLogger("zed")

	var find zed.Finder
	if cfg.Mod.Device == "fake" {
		find = fake.NewCamera().Finder()
	}

	camera = newSession(cfg.Mod, find)

	api.HandleFunc("api/zed", apiZed)
	api.HandleFunc("api/zed/modes", apiModes)
	api.HandleFunc("api/zed/controls", apiControls)
	api.HandleFunc("api/zed/controls/reset", apiControlsReset)
	api.HandleFunc("api/zed/led", apiLED)
	api.HandleFunc("api/zed/frame.jpeg", apiFrame)
	api.HandleFunc("api/zed/stream.mjpeg", apiStream)

	ws.HandleFunc("zed/stats", wsStats)
	ws.HandleFunc("zed/frames", wsFrames)

	if cfg.Mod.Autostart {
		if err := camera.start(); err != nil {
			log.Error().Err(err).Msg("[zed] autostart")
		}
	}
}

// Close stops streaming and releases the camera
func Close() {
	if camera == nil {
		return
	}
	if err := camera.stop(); err != nil {
		log.Warn().Err(err).Msg("[zed] close")
	}
}

// Serial of the open camera, empty when it is closed
func Serial() string {
	if camera == nil {
		return ""
	}
	sn, _ := camera.vc.SerialNumber()
	return sn
}

var log = zerolog.Nop()
var camera *session

type session struct {
	mu  sync.Mutex
	cfg Config
	vc  *zed.VideoCapture
	hub hub
}

func newSession(cfg Config, find zed.Finder) *session {
	return &session{cfg: cfg, vc: zed.NewVideoCapture(find)}
}

func (c Config) mode() (zed.Mode, zed.ColorSpace, error) {
	res, err := zed.ParseResolution(c.Resolution)
	if err != nil {
		return zed.Mode{}, 0, err
	}

	mode, err := zed.NewMode(res, zed.FrameRate(c.FPS))
	if err != nil {
		return zed.Mode{}, 0, err
	}

	cs, err := zed.ParseColorSpace(c.ColorSpace)
	if err != nil {
		return zed.Mode{}, 0, err
	}

	return mode, cs, nil
}

func (s *session) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(s.cfg)
}

func (s *session) startLocked(cfg Config) error {
	mode, cs, err := cfg.mode()
	if err != nil {
		return err
	}

	dims, err := s.vc.OpenMode(mode, cs)
	if err != nil {
		return err
	}

	s.applyLocked(cfg)

	s.hub.setColorSpace(cs)

	if err = s.vc.Start(s.hub.onFrame); err != nil {
		_ = s.vc.Close()
		return err
	}

	serial, _ := s.vc.SerialNumber()
	log.Info().Stringer("mode", mode).Stringer("color", cs).Stringer("size", dims).
		Str("serial", serial).Msg("[zed] start")

	return nil
}

func (s *session) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *session) stopLocked() error {
	var errs []error

	if err := s.vc.Stop(); err != nil && !errors.Is(err, zed.ErrNotStreaming) {
		errs = append(errs, err)
	}
	if err := s.vc.Close(); err != nil && !errors.Is(err, zed.ErrNotOpen) {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// restart reopens the camera with cfg, on failure the camera stays closed
// and the previous config is kept
func (s *session) restart(cfg Config) error {
	if _, _, err := cfg.mode(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopLocked(); err != nil {
		log.Warn().Err(err).Msg("[zed] stop")
	}

	if err := s.startLocked(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// controlOrder puts auto white balance first, a manual temperature is
// ignored by the camera while auto is on
var controlOrder = append([]zed.Control{zed.AutoWhiteBalanceTemperature}, zed.Controls[:len(zed.Controls)-1]...)

// applyLocked pushes configured controls and LED state to the open camera
func (s *session) applyLocked(cfg Config) {
	for _, ctrl := range controlOrder {
		v, ok := cfg.Controls[ctrl.String()]
		if !ok {
			continue
		}
		if err := s.vc.Set(ctrl, v); err != nil {
			log.Warn().Err(err).Msg("[zed] apply control")
		}
	}

	for name := range cfg.Controls {
		if _, err := zed.ParseControl(name); err != nil {
			log.Warn().Str("name", name).Msg("[zed] unknown control")
		}
	}

	if cfg.LED != nil {
		var err error
		if *cfg.LED {
			err = s.vc.TurnOnLED()
		} else {
			err = s.vc.TurnOffLED()
		}
		if err != nil {
			log.Warn().Err(err).Msg("[zed] apply led")
		}
	}
}
