package mdns

import (
	"fmt"

	"github.com/hashicorp/mdns"
)

// startEmbedded runs an in-process responder on all interfaces.
func startEmbedded(instance, host string, port int, txt []string) (advertisement, error) {
	service, err := mdns.NewMDNSService(
		instance,    // Instance name (hostname)
		ServiceType, // Service type
		"",          // Domain (empty = .local)
		host,        // Host (empty = use system hostname)
		port,
		nil, // IPs (nil = all interfaces)
		txt,
	)
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return server, nil
}
