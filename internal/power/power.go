// Package power restarts the node at the end of a restart-mode cycle.
//
// Two strategies are available:
//   - reboot: sync filesystems and reboot the board (needs CAP_SYS_BOOT)
//   - exit: exit the process with a fixed code and let systemd
//     (Restart=always) start it again
//
// Restart never returns on success.
package power

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Restart strategies.
const (
	MethodReboot = "reboot"
	MethodExit   = "exit"
)

// ErrUnknownMethod is returned by New for an unrecognised strategy.
var ErrUnknownMethod = errors.New("power: unknown restart method")

// Restarter performs a full device or process restart.
type Restarter interface {
	// Restart does not return on success.
	Restart(reason string) error

	// OnRestart registers fn to run before the restart. Deferred
	// functions never run, so open resources are released here.
	OnRestart(fn func())
}

// hooks holds the functions run ahead of a restart.
type hooks []func()

func (h *hooks) OnRestart(fn func()) {
	*h = append(*h, fn)
}

func (h hooks) run() {
	for _, fn := range h {
		fn()
	}
}

// Logger is the logging interface used by restarters.
type Logger interface {
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}

// New returns the restarter for method.
func New(method string, exitCode int, logger Logger) (Restarter, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	switch method {
	case MethodReboot:
		return &Reboot{logger: logger, sync: unix.Sync, reboot: unix.Reboot}, nil
	case MethodExit:
		return &Exit{Code: exitCode, logger: logger, exit: os.Exit}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Reboot reboots the board.
type Reboot struct {
	hooks
	logger Logger
	sync   func()
	reboot func(cmd int) error
}

// Restart flushes filesystem buffers and reboots.
func (r *Reboot) Restart(reason string) error {
	r.logger.Info("rebooting", "reason", reason)
	r.hooks.run()
	r.sync()
	if err := r.reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("power: reboot: %w", err)
	}
	return nil
}

// Exit terminates the process so the service manager restarts it.
type Exit struct {
	hooks
	Code   int
	logger Logger
	exit   func(code int)
}

// Restart runs the registered hooks and exits with Code.
func (e *Exit) Restart(reason string) error {
	e.logger.Info("exiting for restart", "reason", reason, "exit_code", e.Code)
	e.hooks.run()
	e.exit(e.Code)
	return nil
}
