package api

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/pkg/yaml"
)

var errBadConfig = errors.New("api: bad config")

func configHandler(w http.ResponseWriter, r *http.Request) {
	if app.ConfigPath == "" {
		http.Error(w, "", http.StatusGone)
		return
	}

	var update func(src, body []byte) ([]byte, error)

	switch r.Method {
	case "GET":
		data, err := os.ReadFile(app.ConfigPath)
		if err != nil {
			http.Error(w, "", http.StatusNotFound)
			return
		}
		Response(w, data, "application/yaml")
		return
	case "POST":
		update = replaceYAML
	case "PATCH":
		update = mergeYAML
	default:
		http.Error(w, "Method not allowed", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = app.UpdateConfig(func(src []byte) ([]byte, error) {
		return update(src, body)
	})
	switch {
	case err == nil:
		log.Info().Str("method", r.Method).Msg("[api] config saved, restart to apply")
	case errors.Is(err, errBadConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// replaceYAML keeps body as is, comments included, if it is a valid YAML
func replaceYAML(_, body []byte) ([]byte, error) {
	var tmp map[string]any
	if err := yaml.Unmarshal(body, &tmp); err != nil {
		return nil, errors.Join(errBadConfig, err)
	}
	return body, nil
}

// mergeYAML deep merges body into src, comments of src are lost
func mergeYAML(src, body []byte) ([]byte, error) {
	var dst map[string]any
	if err := yaml.Unmarshal(src, &dst); err != nil {
		return nil, errors.Join(errBadConfig, err)
	}

	var patch map[string]any
	if err := yaml.Unmarshal(body, &patch); err != nil {
		return nil, errors.Join(errBadConfig, err)
	}

	if dst == nil {
		dst = map[string]any{}
	}

	return yaml.Encode(merge(dst, patch), 2)
}

func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if d, ok := dst[k].(map[string]any); ok {
			if s, ok := v.(map[string]any); ok {
				dst[k] = merge(d, s)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}
