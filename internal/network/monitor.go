// Package network watches the host's network association.
//
// Association itself (Wi-Fi credentials, DHCP) belongs to the operating
// system. The endpoint only needs to know when an address has been
// acquired, which is what Monitor reports.
package network

import (
	"net"
	"sync"
)

// Iface is the part of a network interface the monitor looks at.
type Iface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.Addr
}

// Lister returns the host's interfaces.
type Lister func() ([]Iface, error)

// Monitor reports whether an interface holds a usable unicast address.
type Monitor struct {
	name string
	list Lister

	mu   sync.Mutex
	last string
}

// NewMonitor watches the named interface, or every non-loopback interface
// when name is empty.
func NewMonitor(name string) *Monitor {
	return NewMonitorWithLister(name, SystemInterfaces)
}

// NewMonitorWithLister is NewMonitor with a custom interface source.
func NewMonitorWithLister(name string, list Lister) *Monitor {
	return &Monitor{name: name, list: list}
}

// IsConnected returns true once a watched interface is up and carries a
// global unicast address. The address is remembered for Address.
func (m *Monitor) IsConnected() bool {
	addr := m.lookup()

	m.mu.Lock()
	m.last = addr
	m.mu.Unlock()

	return addr != ""
}

// Address returns the address found by the last IsConnected call.
func (m *Monitor) Address() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) lookup() string {
	ifaces, err := m.list()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if m.name != "" && iface.Name != m.name {
			continue
		}
		if !iface.Up || iface.Loopback {
			continue
		}
		for _, a := range iface.Addrs {
			if ip := ipOf(a); ip != nil && ip.IsGlobalUnicast() {
				return ip.String()
			}
		}
	}
	return ""
}

func ipOf(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}

// SystemInterfaces lists the host's interfaces through package net.
func SystemInterfaces() ([]Iface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Iface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Iface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Addrs:    addrs,
		})
	}
	return out, nil
}
