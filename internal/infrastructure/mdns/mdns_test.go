package mdns

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
)

func newEntry(instance, host string, port int, ips ...string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{ServiceRecord: zeroconf.ServiceRecord{Instance: instance, Service: ServiceMQTT, Domain: Domain}}
	e.HostName = host
	e.Port = port
	for _, ip := range ips {
		e.AddrIPv4 = append(e.AddrIPv4, net.ParseIP(ip))
	}
	return e
}

// fakeBrowse emits the given entries, then blocks until ctx is done.
func fakeBrowse(found ...*zeroconf.ServiceEntry) browseFunc {
	return func(ctx context.Context, _, _ string, entries, _ chan *zeroconf.ServiceEntry, _ ...zeroconf.ClientOption) error {
		for _, e := range found {
			select {
			case entries <- e:
			case <-ctx.Done():
				return nil
			}
		}
		<-ctx.Done()
		return nil
	}
}

func testResolver(b browseFunc) *Resolver {
	r := NewResolver(false, "")
	r.timeout = 200 * time.Millisecond
	r.browse = b
	return r
}

func TestResolve(t *testing.T) {
	r := testResolver(fakeBrowse(
		newEntry("broken", "", 0),
		newEntry("mosquitto", "ha.local.", 1883, "192.168.1.10"),
	))

	b, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.Host != "192.168.1.10" || b.Port != 1883 {
		t.Errorf("Resolve() = %+v, want 192.168.1.10:1883", b)
	}
	if b.Address() != "192.168.1.10:1883" {
		t.Errorf("Address() = %q", b.Address())
	}
}

func TestResolve_Timeout(t *testing.T) {
	r := testResolver(fakeBrowse())

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestResolve_BrowseError(t *testing.T) {
	boom := errors.New("no multicast interface")
	r := testResolver(func(context.Context, string, string, chan *zeroconf.ServiceEntry, chan *zeroconf.ServiceEntry, ...zeroconf.ClientOption) error {
		return boom
	})

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Resolve() error = %v, want browse error", err)
	}
}

func TestNewResolver_TLS(t *testing.T) {
	if got := NewResolver(true, "").service; got != ServiceMQTTTLS {
		t.Errorf("service = %q, want %q", got, ServiceMQTTTLS)
	}
	if got := NewResolver(false, "").service; got != ServiceMQTT {
		t.Errorf("service = %q, want %q", got, ServiceMQTT)
	}
}

func TestEntryToBroker(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantHost string
		wantOK   bool
	}{
		{"nil entry", nil, "", false},
		{"no port", newEntry("a", "ha.local.", 0, "10.0.0.1"), "", false},
		{"prefers ipv4", newEntry("a", "ha.local.", 1883, "10.0.0.1"), "10.0.0.1", true},
		{"skips loopback", newEntry("a", "ha.local.", 1883, "127.0.0.1"), "ha.local.", true},
		{"hostname fallback", newEntry("a", "ha.local.", 1883), "ha.local.", true},
		{"nothing usable", newEntry("a", "", 1883), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := entryToBroker(tt.entry)
			if ok != tt.wantOK {
				t.Fatalf("entryToBroker() ok = %v, want %v", ok, tt.wantOK)
			}
			if b.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", b.Host, tt.wantHost)
			}
		})
	}
}
