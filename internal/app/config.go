package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zedopen/zedcapture/pkg/shell"
	"github.com/zedopen/zedcapture/pkg/yaml"
)

const (
	defaultConfig = "zedcapture.yaml"
	envConfig     = "ZEDCAPTURE_CONFIG"
)

var ErrConfigDisabled = errors.New("app: config file disabled")

// sources in load order, later ones override earlier
var sources [][]byte

// LoadConfig decodes every config source into v
func LoadConfig(v any) {
	for _, src := range sources {
		if err := yaml.Unmarshal(src, v); err != nil {
			Logger.Warn().Err(err).Msg("[app] read config")
		}
	}
}

var writeMu sync.Mutex

// PatchConfig writes key: value under path into the config file, nil value removes the key
func PatchConfig(key string, value any, path ...string) error {
	return UpdateConfig(func(src []byte) ([]byte, error) {
		return yaml.Patch(src, key, value, path...)
	})
}

// UpdateConfig replaces the config file with the result of fn. Missing file
// comes as empty src. The file is replaced with rename, so readers never see
// a partial file.
func UpdateConfig(fn func(src []byte) ([]byte, error)) error {
	if ConfigPath == "" {
		return ErrConfigDisabled
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	src, err := os.ReadFile(ConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	dst, err := fn(src)
	if err != nil {
		return err
	}

	tmp := ConfigPath + ".tmp"
	if err = os.WriteFile(tmp, dst, 0644); err != nil {
		return err
	}
	if err = os.Rename(tmp, ConfigPath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

type flagConfig []string

func (c *flagConfig) String() string {
	return strings.Join(*c, " ")
}

func (c *flagConfig) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func initConfig(args flagConfig) {
	if len(args) == 0 {
		if s := os.Getenv(envConfig); s != "" {
			args = flagConfig{s}
		} else {
			args = flagConfig{defaultConfig}
		}
	}

	for _, arg := range args {
		src, isFile := readSource(arg)
		if isFile && ConfigPath == "" {
			ConfigPath = absPath(arg)
		}
		if src != nil {
			sources = append(sources, src)
		}
	}

	if ConfigPath != "" {
		Info["config_path"] = ConfigPath
	}
}

// readSource accepts inline YAML/JSON, `key.path=value` or a file path
func readSource(arg string) (src []byte, isFile bool) {
	switch {
	case arg == "":
		return nil, false
	case arg[0] == '{':
		return []byte(arg), false
	}

	if src = parseConfString(arg); src != nil {
		return src, false
	}

	b, err := os.ReadFile(arg)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			Logger.Warn().Err(err).Str("path", arg).Msg("[app] read config")
		}
		return nil, true
	}
	return []byte(shell.ReplaceEnvVars(string(b))), true
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// parseConfString converts `zed.resolution=VGA` to `{zed: {resolution: VGA}}`
func parseConfString(s string) []byte {
	keys, value, ok := strings.Cut(s, "=")
	if !ok {
		return nil
	}

	items := strings.Split(keys, ".")
	if len(items) < 2 {
		return nil
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString("{" + item + ": ")
	}
	b.WriteString(value)
	b.WriteString(strings.Repeat("}", len(items)))
	return []byte(b.String())
}
