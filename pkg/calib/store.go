package calib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultURL = "https://www.stereolabs.com/developers/calib/?SN="

// Store keeps calibration files in Dir and downloads missing ones from URL
type Store struct {
	Dir    string // default $HOME/.stereolabs/calibration
	URL    string // serial number is appended
	Client *http.Client

	UserAgent string
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stereolabs", "calibration"), nil
}

// SerialDigits drops everything except ASCII digits
func SerialDigits(serial string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, serial)
}

// Path returns the cache file for serial, creating the directory if needed
func (s *Store) Path(serial string) (string, error) {
	sn := SerialDigits(serial)
	if sn == "" {
		return "", fmt.Errorf("%w: no digits in serial %q", ErrNotFound, serial)
	}

	dir := s.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, "SN"+sn+".conf"), nil
}

// Load returns calibration for serial from the cache, downloading it first
// when the cache has no file for it
func (s *Store) Load(ctx context.Context, serial string) (*Data, error) {
	path, err := s.Path(serial)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("serial", serial).Msg("[calib] not found in cache, downloading")
		return s.download(ctx, SerialDigits(serial), path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

func (s *Store) download(ctx context.Context, sn, path string) (*Data, error) {
	url := s.URL
	if url == "" {
		url = DefaultURL
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url+sn, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w: SN%s", ErrDownloadFailed, ErrNotFound, sn)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	data, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if err = writeFile(path, body); err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Msg("[calib] downloaded")

	return data, nil
}

// writeFile replaces path atomically, no partial file is left on error
func writeFile(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return nil
}
