package mdns

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/require"
	"github.com/zedopen/zedcapture/internal/app"
)

func TestTXT(t *testing.T) {
	require.Equal(t, []string{"version=" + app.Version, "path=/api"}, txt(""))
	require.Equal(t, []string{"version=" + app.Version, "path=/api", "serial=1010"}, txt("1010"))
}

func TestNewInstance(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "zedcapture-1010._zedcapture._tcp.local.",
		Host:       "zedcapture-1010.local.",
		AddrV4:     net.IPv4(192, 168, 1, 10),
		Port:       1984,
		InfoFields: []string{"version=0.3.0", "serial=1010"},
	}

	require.Equal(t, &instance{
		Name:    "zedcapture-1010._zedcapture._tcp.local.",
		Host:    "zedcapture-1010.local.",
		Addr:    "192.168.1.10",
		Port:    1984,
		Serial:  "1010",
		Version: "0.3.0",
	}, newInstance(entry))
}

type testServer struct {
	shutdown int
}

func (s *testServer) Shutdown() error {
	s.shutdown++
	return nil
}

func TestClose(t *testing.T) {
	t.Cleanup(func() {
		mu.Lock()
		server, closed = nil, false
		mu.Unlock()
	})

	srv1 := &testServer{}
	require.True(t, publish(srv1))

	Close()
	require.Equal(t, 1, srv1.shutdown)

	// advertise finished after Close
	srv2 := &testServer{}
	require.False(t, publish(srv2))
	require.Equal(t, 1, srv2.shutdown)

	Close()
	require.Equal(t, 1, srv1.shutdown)
}
