package mdns

import (
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// Service type of the HTTP API
const Service = "_zedcapture._tcp"

// NewService describes one instance, nil ips means all local addresses
func NewService(name string, port int, ips []net.IP, txt []string) (*mdns.MDNSService, error) {
	if len(ips) == 0 || ips[0] == nil {
		ips = LocalIPs()
	}

	// hostName must end with `.local.` or hashicorp/mdns will resolve it
	return mdns.NewMDNSService(name, Service, "", name+".local.", port, ips, txt)
}

func NewServer(name string, port int, ips []net.IP, txt []string) (*mdns.Server, error) {
	service, err := NewService(name, port, ips, txt)
	if err != nil {
		return nil, err
	}
	return mdns.NewServer(&mdns.Config{Zone: service})
}

// Browse collects instances answering within timeout
func Browse(timeout time.Duration) ([]*mdns.ServiceEntry, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := &mdns.QueryParam{
		Service: Service, Entries: entries, Timeout: timeout, DisableIPv6: true,
	}

	var items []*mdns.ServiceEntry
	done := make(chan struct{})

	go func() {
		for entry := range entries {
			items = append(items, entry)
		}
		close(done)
	}()

	err := mdns.Query(params)
	close(entries)
	<-done

	return items, err
}

// Field returns a `key=value` TXT field
func Field(entry *mdns.ServiceEntry, key string) string {
	for _, field := range entry.InfoFields {
		if k, v, ok := strings.Cut(field, "="); ok && k == key {
			return v
		}
	}
	return ""
}

func LocalIPs() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}

		var addrs []net.Addr
		if addrs, err = iface.Addrs(); err != nil {
			continue
		}
		for _, addr := range addrs {
			switch addr := addr.(type) {
			case *net.IPNet:
				ips = append(ips, addr.IP)
			case *net.IPAddr:
				ips = append(ips, addr.IP)
			}
		}
	}
	return ips
}
