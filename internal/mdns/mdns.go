package mdns

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/internal/zed"
	"github.com/zedopen/zedcapture/pkg/calib"
	mdnspkg "github.com/zedopen/zedcapture/pkg/mdns"
)

func Init() {
	var cfg struct {
		Mod struct {
			Enabled bool   `yaml:"enabled"`
			Name    string `yaml:"name"`
		} `yaml:"mdns"`
	}

	cfg.Mod.Name = "zedcapture"

	app.LoadConfig(&cfg)

	log = app.GetLogger("mdns")

	api.HandleFunc("api/mdns", apiMDNS)

	if !cfg.Mod.Enabled {
		return
	}

	go advertise(cfg.Mod.Name)
}

var log = zerolog.Nop()

var (
	mu     sync.Mutex
	server interface{ Shutdown() error }
	closed bool
)

func advertise(name string) {
	port := api.ListenPort(5 * time.Second)
	if port == 0 {
		log.Warn().Msg("[mdns] no API listener to advertise")
		return
	}

	sn := calib.SerialDigits(zed.Serial())
	if sn != "" {
		name += "-" + sn
	}

	srv, err := mdnspkg.NewServer(name, port, nil, txt(sn))
	if err != nil {
		log.Error().Err(err).Msg("[mdns] server")
		return
	}

	if !publish(srv) {
		return
	}

	log.Info().Str("name", name).Int("port", port).Msg("[mdns] advertise")
}

func txt(sn string) []string {
	fields := []string{"version=" + app.Version, "path=" + api.BasePath() + "/api"}
	if sn != "" {
		fields = append(fields, "serial="+sn)
	}
	return fields
}

// publish keeps srv for Close, or shuts it down if Close was already called
func publish(srv interface{ Shutdown() error }) bool {
	mu.Lock()
	defer mu.Unlock()

	if closed {
		_ = srv.Shutdown()
		return false
	}
	server = srv
	return true
}

// Close stops advertising, a server started later is shut down right away
func Close() {
	mu.Lock()
	srv := server
	server = nil
	closed = true
	mu.Unlock()

	if srv != nil {
		_ = srv.Shutdown()
	}
}

type instance struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	Addr    string `json:"addr,omitempty"`
	Port    int    `json:"port"`
	Serial  string `json:"serial,omitempty"`
	Version string `json:"version,omitempty"`
}

func newInstance(entry *mdns.ServiceEntry) *instance {
	i := &instance{
		Name:    entry.Name,
		Host:    entry.Host,
		Port:    entry.Port,
		Serial:  mdnspkg.Field(entry, "serial"),
		Version: mdnspkg.Field(entry, "version"),
	}
	if entry.AddrV4 != nil {
		i.Addr = entry.AddrV4.String()
	}
	return i
}

// apiMDNS lists other instances on the local network
func apiMDNS(w http.ResponseWriter, r *http.Request) {
	timeout := time.Second
	if s := r.URL.Query().Get("timeout"); s != "" {
		if ms, err := strconv.Atoi(s); err == nil && ms > 0 && ms <= 10000 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	entries, err := mdnspkg.Browse(timeout)
	if err != nil {
		api.Error(w, err)
		return
	}

	items := []*instance{}
	for _, entry := range entries {
		items = append(items, newInstance(entry))
	}

	api.ResponseJSON(w, items)
}
