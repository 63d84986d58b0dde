package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/pkg/calib"
	"github.com/zedopen/zedcapture/pkg/zed"
	"gopkg.in/yaml.v3"
)

func TestStatusCode(t *testing.T) {
	log = zerolog.Nop()

	tests := []struct {
		err  error
		code int
	}{
		{zed.ErrInvalidFrameRate, http.StatusBadRequest},
		{fmt.Errorf("brightness: %w", zed.ErrOutOfRange), http.StatusBadRequest},
		{calib.ErrUnsupportedResolution, http.StatusBadRequest},
		{zed.ErrDeviceNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", calib.ErrDownloadFailed, calib.ErrNotFound), http.StatusNotFound},
		{calib.ErrMissingKey, http.StatusNotFound},
		{zed.ErrAlreadyOpen, http.StatusConflict},
		{zed.ErrNotStreaming, http.StatusConflict},
		{zed.ErrBusy, http.StatusConflict},
		{zed.ErrUnsupported, http.StatusNotImplemented},
		{calib.ErrDownloadFailed, http.StatusBadGateway},
		{os.ErrPermission, http.StatusInternalServerError},
	}

	for _, test := range tests {
		require.Equal(t, test.code, StatusCode(test.err), test.err.Error())

		w := httptest.NewRecorder()
		Error(w, test.err)
		require.Equal(t, test.code, w.Code)
		require.Contains(t, w.Body.String(), test.err.Error())
	}
}

func TestLogHandler(t *testing.T) {
	app.MemoryLog.Reset()
	_, _ = app.MemoryLog.Write([]byte(`{"level":"info","message":"hello"}` + "\n"))

	w := httptest.NewRecorder()
	logHandler(w, httptest.NewRequest("GET", "/api/log", nil))
	require.Equal(t, "application/jsonlines", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), `"message":"hello"`)

	w = httptest.NewRecorder()
	logHandler(w, httptest.NewRequest("DELETE", "/api/log", nil))
	require.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	logHandler(w, httptest.NewRequest("GET", "/api/log", nil))
	require.Empty(t, w.Body.String())
}

func TestConfigHandler(t *testing.T) {
	prevPath := app.ConfigPath
	t.Cleanup(func() {
		app.ConfigPath = prevPath
	})

	app.ConfigPath = ""
	w := httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("GET", "/api/config", nil))
	require.Equal(t, http.StatusGone, w.Code)

	app.ConfigPath = filepath.Join(t.TempDir(), "zedcapture.yaml")

	w = httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("GET", "/api/config", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("POST", "/api/config", strings.NewReader("zed: [")))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	body := "zed:\n  resolution: VGA\n"
	configHandler(w, httptest.NewRequest("POST", "/api/config", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("GET", "/api/config", nil))
	require.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	require.Equal(t, body, w.Body.String())

	w = httptest.NewRecorder()
	body = "zed:\n  fps: 100\nlog:\n  zed: debug\n"
	configHandler(w, httptest.NewRequest("PATCH", "/api/config", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	b, err := os.ReadFile(app.ConfigPath)
	require.NoError(t, err)

	var cfg struct {
		Zed struct {
			Resolution string `yaml:"resolution"`
			FPS        int    `yaml:"fps"`
		} `yaml:"zed"`
		Log map[string]string `yaml:"log"`
	}
	require.NoError(t, yaml.Unmarshal(b, &cfg))
	require.Equal(t, "VGA", cfg.Zed.Resolution)
	require.Equal(t, 100, cfg.Zed.FPS)
	require.Equal(t, "debug", cfg.Log["zed"])
}

func TestMergeYAML(t *testing.T) {
	out, err := mergeYAML(nil, []byte("mdns:\n  enabled: true\n"))
	require.NoError(t, err)
	require.Equal(t, "mdns:\n  enabled: true\n", string(out))

	out, err = mergeYAML(out, []byte("mdns:\n  name: left\n"))
	require.NoError(t, err)
	require.Equal(t, "mdns:\n  enabled: true\n  name: left\n", string(out))

	_, err = mergeYAML(out, []byte("mdns: ["))
	require.ErrorIs(t, err, errBadConfig)
}

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"zed": map[string]any{"resolution": "HD720", "controls": map[string]any{"gamma": 5}},
		"api": map[string]any{"listen": ":1984"},
	}
	src := map[string]any{
		"zed": map[string]any{"controls": map[string]any{"hue": 1}},
		"api": "disabled",
	}

	require.Equal(t, map[string]any{
		"zed": map[string]any{"resolution": "HD720", "controls": map[string]any{"gamma": 5, "hue": 1}},
		"api": "disabled",
	}, merge(dst, src))
}

func TestResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ResponseJSON(w, map[string]int{"fps": 30})
	require.Equal(t, MimeJSON, w.Header().Get("Content-Type"))
	require.Equal(t, "{\"fps\":30}\n", w.Body.String())

	w = httptest.NewRecorder()
	Response(w, 42, MimeText)
	require.Equal(t, "42", w.Body.String())
}
