// Package mdns locates the MQTT broker on the local network via DNS-SD.
//
// Mosquitto and the Home Assistant add-on can advertise _mqtt._tcp. A
// location with broker.mdns enabled and no fixed host resolves the broker
// once per session attempt; the first IPv4 answer wins.
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// DNS-SD names for MQTT brokers.
const (
	ServiceMQTT    = "_mqtt._tcp"
	ServiceMQTTTLS = "_secure-mqtt._tcp"
	Domain         = "local."

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 3 * time.Second
)

// ErrNotFound is returned when no broker answers before the timeout.
var ErrNotFound = errors.New("mdns: no broker found")

// Broker is a resolved broker endpoint.
type Broker struct {
	Instance string
	Host     string
	Port     int
}

// Address returns host:port.
func (b Broker) Address() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// browseFunc runs a DNS-SD browse until ctx is done.
type browseFunc func(ctx context.Context, service, domain string,
	entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

func zeroconfBrowse(ctx context.Context, service, domain string,
	entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

// Resolver looks up a broker by service type.
type Resolver struct {
	service string
	iface   string
	timeout time.Duration
	browse  browseFunc
}

// NewResolver returns a resolver for plain (tls=false) or TLS brokers.
// iface restricts the query to one interface; empty uses all.
func NewResolver(tls bool, iface string) *Resolver {
	service := ServiceMQTT
	if tls {
		service = ServiceMQTTTLS
	}
	return &Resolver{
		service: service,
		iface:   iface,
		timeout: DefaultTimeout,
		browse:  zeroconfBrowse,
	}
}

// Resolve returns the first broker that answers.
func (r *Resolver) Resolve(ctx context.Context) (Broker, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	browseErr := make(chan error, 1)
	go func() {
		browseErr <- r.browse(ctx, r.service, Domain, entries, removed, r.options()...)
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return Broker{}, fmt.Errorf("%w: %s", ErrNotFound, r.service)
			}
			if b, ok := entryToBroker(entry); ok {
				return b, nil
			}
		case <-removed:
		case err := <-browseErr:
			if err != nil {
				return Broker{}, fmt.Errorf("mdns: browsing %s: %w", r.service, err)
			}
			browseErr = nil
		case <-ctx.Done():
			return Broker{}, fmt.Errorf("%w: %s: %w", ErrNotFound, r.service, ctx.Err())
		}
	}
}

func (r *Resolver) options() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if r.iface != "" {
		if ifi, err := net.InterfaceByName(r.iface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*ifi}))
		}
	}
	return opts
}

// entryToBroker prefers an IPv4 address over the advertised host name,
// since the node may not run an mDNS-aware resolver.
func entryToBroker(entry *zeroconf.ServiceEntry) (Broker, bool) {
	if entry == nil || entry.Port <= 0 {
		return Broker{}, false
	}

	host := ""
	for _, ip := range entry.AddrIPv4 {
		if ip != nil && !ip.IsLoopback() {
			host = ip.String()
			break
		}
	}
	if host == "" {
		host = entry.HostName
	}
	if host == "" {
		return Broker{}, false
	}

	return Broker{Instance: entry.Instance, Host: host, Port: entry.Port}, true
}
