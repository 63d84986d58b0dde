package calib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConf = "[STEREO]\nBaseline = 119.9\nTY = 0.1\n"

func TestStoreCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SN123.conf"), []byte(sampleConf), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected download %s", r.URL)
	}))
	defer server.Close()

	store := &Store{Dir: dir, URL: server.URL + "/?SN="}

	d, err := store.Load(context.Background(), "ZED-123")
	require.NoError(t, err)

	f, err := d.Float("STEREO", "Baseline")
	require.NoError(t, err)
	require.Equal(t, 119.9, f)
}

func TestStoreDownload(t *testing.T) {
	var requests int
	var sn, agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		sn = r.URL.Query().Get("SN")
		agent = r.UserAgent()
		_, _ = w.Write([]byte(sampleConf))
	}))
	defer server.Close()

	dir := t.TempDir()
	store := &Store{Dir: dir, URL: server.URL + "/calib/?SN=", Client: server.Client(), UserAgent: "zedcapture/test"}

	d, err := store.Load(context.Background(), "SN456")
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	require.Equal(t, "456", sn)
	require.Equal(t, "zedcapture/test", agent)

	b, err := os.ReadFile(filepath.Join(dir, "SN456.conf"))
	require.NoError(t, err)
	require.Equal(t, sampleConf, string(b))

	// second load is served from the cache
	_, err = store.Load(context.Background(), "SN456")
	require.NoError(t, err)
	require.Equal(t, 1, requests)
}

func TestStoreDownloadFailed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errs   []error
	}{
		{"not found", http.StatusNotFound, "", []error{ErrDownloadFailed, ErrNotFound}},
		{"server error", http.StatusInternalServerError, sampleConf, []error{ErrDownloadFailed}},
		{"bad body", http.StatusOK, "<html></html>", []error{ErrParse}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			dir := t.TempDir()
			store := &Store{Dir: dir, URL: server.URL + "/?SN="}

			_, err := store.Load(context.Background(), "789")
			for _, target := range test.errs {
				require.ErrorIs(t, err, target)
			}

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestStoreNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store := &Store{Dir: t.TempDir(), URL: url + "/?SN="}

	_, err := store.Load(context.Background(), "789")
	require.ErrorIs(t, err, ErrDownloadFailed)
}

func TestStoreNoSerial(t *testing.T) {
	store := &Store{Dir: t.TempDir()}

	_, err := store.Load(context.Background(), "ZED")
	require.ErrorIs(t, err, ErrNotFound)
}
