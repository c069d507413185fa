package link

import "context"

// Logger is the logging interface used by link providers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Link is an acquired network link. It is owned by the cycle that
// acquired it.
type Link struct {
	iface string
	ssid  string
	addr  AddrFunc

	// state reports whether the link layer considers itself connected.
	state func(ctx context.Context) (bool, error)

	// release tears the link down; nil for links that are never released.
	release func(ctx context.Context) error
}

// Interface returns the network interface name.
func (l *Link) Interface() string {
	return l.iface
}

// SSID returns the access point name, empty for static links.
func (l *Link) SSID() string {
	return l.ssid
}

// Connected reports whether the link is up and has an IPv4 address.
// Status errors read as "not connected"; the caller's poll bound decides
// when that becomes a failure.
func (l *Link) Connected(ctx context.Context) bool {
	if l.state != nil {
		up, err := l.state(ctx)
		if err != nil || !up {
			return false
		}
	}
	return l.Addr() != ""
}

// Addr returns the link's IPv4 address, or "" when none is assigned.
func (l *Link) Addr() string {
	addr, err := l.addr(l.iface)
	if err != nil {
		return ""
	}
	return addr
}

// Disconnect releases the link. It is a no-op for static links.
func (l *Link) Disconnect(ctx context.Context) error {
	if l.release == nil {
		return nil
	}
	return l.release(ctx)
}
