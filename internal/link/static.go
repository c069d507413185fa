package link

import "context"

// Static uses an interface configured outside the node, such as a wired
// port or Wi-Fi managed by wpa_supplicant. The link is never torn down.
type Static struct {
	iface string
	addr  AddrFunc
}

// NewStatic returns a provider for iface.
func NewStatic(iface string) *Static {
	return &Static{iface: iface, addr: InterfaceIPv4}
}

// Connect returns a handle for the interface. Credentials are ignored.
func (s *Static) Connect(_ context.Context, ssid, _ string) (*Link, error) {
	return &Link{iface: s.iface, ssid: ssid, addr: s.addr}, nil
}
