package link

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Defaults for the NetworkManager provider.
const (
	DefaultNMCLIPath = "nmcli"

	// commandTimeout bounds every nmcli invocation.
	commandTimeout = 10 * time.Second

	// nmStateConnected is NM_DEVICE_STATE_ACTIVATED.
	nmStateConnected = 100
)

// Runner runs an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // name is the configured nmcli path
	return cmd.CombinedOutput()
}

// NMCLI brings up a Wi-Fi link through NetworkManager.
type NMCLI struct {
	path   string
	iface  string
	run    Runner
	addr   AddrFunc
	logger Logger
}

// NewNMCLI returns a provider for the Wi-Fi interface iface.
// An empty path uses nmcli from $PATH.
func NewNMCLI(path, iface string) *NMCLI {
	if path == "" {
		path = DefaultNMCLIPath
	}
	return &NMCLI{
		path:   path,
		iface:  iface,
		run:    execRunner{},
		addr:   InterfaceIPv4,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the provider.
func (n *NMCLI) SetLogger(logger Logger) {
	n.logger = logger
}

// Connect asks NetworkManager to associate iface with ssid and returns
// without waiting for activation. When iface is already connected to
// ssid nothing is requested.
func (n *NMCLI) Connect(ctx context.Context, ssid, password string) (*Link, error) {
	l := &Link{
		iface:   n.iface,
		ssid:    ssid,
		addr:    n.addr,
		state:   n.connected,
		release: n.disconnect,
	}

	state, conn, err := n.deviceState(ctx)
	if err == nil && state == nmStateConnected && conn == ssid {
		n.logger.Debug("link already up", "interface", n.iface, "ssid", ssid)
		return l, nil
	}

	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", n.iface)

	if _, err := n.exec(ctx, args...); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, ssid, err)
	}

	n.logger.Debug("link connect requested", "interface", n.iface, "ssid", ssid)
	return l, nil
}

// connected reports whether NetworkManager has activated the device.
func (n *NMCLI) connected(ctx context.Context) (bool, error) {
	state, _, err := n.deviceState(ctx)
	if err != nil {
		return false, err
	}
	return state == nmStateConnected, nil
}

// disconnect deactivates the device.
func (n *NMCLI) disconnect(ctx context.Context) error {
	if _, err := n.exec(ctx, "device", "disconnect", n.iface); err != nil {
		return err
	}
	n.logger.Debug("link disconnected", "interface", n.iface)
	return nil
}

// deviceState returns the numeric device state and active connection name.
//
// nmcli -g prints one value per line:
//
//	100 (connected)
//	home-ap
func (n *NMCLI) deviceState(ctx context.Context) (int, string, error) {
	out, err := n.exec(ctx, "-g", "GENERAL.STATE,GENERAL.CONNECTION", "device", "show", n.iface)
	if err != nil {
		return 0, "", err
	}
	return parseDeviceState(out)
}

func parseDeviceState(out []byte) (int, string, error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")

	stateField, _, _ := strings.Cut(strings.TrimSpace(lines[0]), " ")
	state, err := strconv.Atoi(stateField)
	if err != nil {
		return 0, "", fmt.Errorf("parsing device state %q: %w", lines[0], err)
	}

	var conn string
	if len(lines) > 1 {
		conn = strings.TrimSpace(lines[1])
	}
	return state, conn, nil
}

// exec runs nmcli with a bounded timeout.
func (n *NMCLI) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := n.run.Run(cmdCtx, n.path, args...)
	if err != nil {
		msg := string(bytes.TrimSpace(out))
		return out, fmt.Errorf("%w: %s %s: %w: %s", ErrCommandFailed, n.path, redact(args), err, msg)
	}
	return out, nil
}

// redact hides the value following "password" so it never reaches logs.
func redact(args []string) string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "password" {
			out[i+1] = "***"
		}
	}
	return strings.Join(out, " ")
}
