package calibration

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/pkg/calib"
	"github.com/zedopen/zedcapture/pkg/zed"
	"gonum.org/v1/gonum/mat"
)

func Init() {
	var cfg struct {
		Mod struct {
			Dir     string        `yaml:"dir"`
			URL     string        `yaml:"url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"calibration"`
	}

	cfg.Mod.URL = calib.DefaultURL
	cfg.Mod.Timeout = time.Minute

	app.LoadConfig(&cfg)

	log = app.GetLogger("calib")

	SetStore(&calib.Store{
		Dir:    cfg.Mod.Dir,
		URL:    cfg.Mod.URL,
		Client: &http.Client{Timeout: cfg.Mod.Timeout},

		UserAgent: app.UserAgent,
	})

	api.HandleFunc("api/calibration", apiCalibration)
	api.HandleFunc("api/calibration/rectify", apiRectify)
}

var log = zerolog.Nop()

type mapsKey struct {
	sn   string
	dims zed.StereoDimensions
}

// loading is a download in progress, done is closed when d or err is set
type loading struct {
	done chan struct{}
	d    *calib.Data
	err  error
}

var (
	mu      sync.Mutex
	store   = &calib.Store{}
	datas   = map[string]*calib.Data{}
	pending = map[string]*loading{}
	maps    = map[mapsKey]*calib.Maps{}
)

// SetStore replaces the store and drops everything loaded from the old one
func SetStore(s *calib.Store) {
	mu.Lock()
	store = s
	datas = map[string]*calib.Data{}
	pending = map[string]*loading{}
	maps = map[mapsKey]*calib.Maps{}
	mu.Unlock()
}

// Load returns calibration for the camera serial, Data is immutable so it is
// shared between callers. Concurrent calls for one serial share one download.
func Load(ctx context.Context, serial string) (*calib.Data, error) {
	sn := calib.SerialDigits(serial)

	mu.Lock()
	if d := datas[sn]; d != nil {
		mu.Unlock()
		return d, nil
	}

	if l := pending[sn]; l != nil {
		mu.Unlock()
		select {
		case <-l.done:
			return l.d, l.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l := &loading{done: make(chan struct{})}
	pending[sn] = l
	s := store
	mu.Unlock()

	l.d, l.err = s.Load(ctx, serial)

	mu.Lock()
	if pending[sn] == l {
		delete(pending, sn)
	}
	if l.err == nil && store == s {
		datas[sn] = l.d
	}
	mu.Unlock()

	close(l.done)

	if l.err != nil {
		return nil, l.err
	}

	log.Debug().Str("sn", sn).Int("values", l.d.Len()).Msg("[calib] load")
	return l.d, nil
}

// Maps returns rectification maps for the camera serial at a stereo size
func Maps(ctx context.Context, serial string, dims zed.StereoDimensions) (*calib.Maps, error) {
	key := mapsKey{calib.SerialDigits(serial), dims}

	mu.Lock()
	m := maps[key]
	mu.Unlock()

	if m != nil {
		return m, nil
	}

	d, err := Load(ctx, serial)
	if err != nil {
		return nil, err
	}

	ts := time.Now()

	if m, err = calib.DeriveRectificationMaps(d, dims); err != nil {
		return nil, err
	}

	log.Debug().Str("sn", key.sn).Stringer("size", dims).Dur("took", time.Since(ts)).Msg("[calib] maps")

	mu.Lock()
	maps[key] = m
	mu.Unlock()

	return m, nil
}

func apiCalibration(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusBadRequest)
		return
	}

	sn := r.URL.Query().Get("sn")
	if sn == "" {
		http.Error(w, "sn required", http.StatusBadRequest)
		return
	}

	d, err := Load(r.Context(), sn)
	if err != nil {
		api.Error(w, err)
		return
	}

	if r.URL.Query().Get("format") == "conf" {
		api.Response(w, d.String(), api.MimeText)
		return
	}

	api.ResponseJSON(w, map[string]any{
		"sn":       calib.SerialDigits(sn),
		"sections": d.Map(),
	})
}

type eyeInfo struct {
	R [][]float64 `json:"r"`
	P [][]float64 `json:"p"`
}

type rectifyInfo struct {
	Resolution string               `json:"resolution"`
	Size       zed.StereoDimensions `json:"size"`
	Left       eyeInfo              `json:"left"`
	Right      eyeInfo              `json:"right"`
	Q          [][]float64          `json:"q"`
}

func apiRectify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sn := query.Get("sn")
	if sn == "" {
		http.Error(w, "sn required", http.StatusBadRequest)
		return
	}

	s := query.Get("resolution")
	if s == "" {
		s = zed.DefaultMode.Resolution().String()
	}

	res, err := zed.ParseResolution(s)
	if err != nil {
		api.Error(w, err)
		return
	}

	dims := zed.Dimensions(res)

	m, err := Maps(r.Context(), sn, dims)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.ResponseJSON(w, &rectifyInfo{
		Resolution: res.String(),
		Size:       dims,
		Left:       eyeInfo{R: rows(m.Left.R), P: rows(m.Left.P)},
		Right:      eyeInfo{R: rows(m.Right.R), P: rows(m.Right.P)},
		Q:          rows(m.Q),
	})
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
