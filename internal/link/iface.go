package link

import (
	"fmt"
	"net"
)

// AddrFunc returns the IPv4 address of an interface, or "" when the
// interface is down or has no address yet.
type AddrFunc func(iface string) (string, error)

// InterfaceIPv4 is the default AddrFunc, backed by the kernel's interface table.
func InterfaceIPv4(name string) (string, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNoInterface, name, err)
	}
	if ifi.Flags&net.FlagUp == 0 {
		return "", nil
	}

	addrs, err := ifi.Addrs()
	if err != nil {
		return "", fmt.Errorf("listing addresses of %s: %w", name, err)
	}

	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String(), nil
		}
	}
	return "", nil
}
