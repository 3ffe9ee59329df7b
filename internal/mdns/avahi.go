package mdns

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

// avahiAdvertisement is an entry group registered with the system avahi daemon.
type avahiAdvertisement struct {
	server *avahi.Server
	group  *avahi.EntryGroup
}

func startAvahi(instance, host string, port int, txt []string) (advertisement, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return nil, fmt.Errorf("avahi server: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("avahi entry group: %w", err)
	}

	records := make([][]byte, len(txt))
	for i, r := range txt {
		records[i] = []byte(r)
	}

	err = group.AddService(
		avahi.InterfaceUnspec,
		avahi.ProtoUnspec,
		0,
		instance,
		ServiceType,
		"local",
		host,
		uint16(port),
		records,
	)
	if err == nil {
		err = group.Commit()
	}
	if err != nil {
		server.EntryGroupFree(group)
		server.Close()
		return nil, fmt.Errorf("avahi publish: %w", err)
	}

	return &avahiAdvertisement{server: server, group: group}, nil
}

func (a *avahiAdvertisement) Shutdown() error {
	err := a.group.Reset()
	a.server.EntryGroupFree(a.group)
	a.server.Close()
	return err
}
