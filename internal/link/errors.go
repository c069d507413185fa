package link

import "errors"

// Sentinel errors for link operations.
var (
	// ErrConnectFailed indicates the connect request was rejected outright.
	ErrConnectFailed = errors.New("link: connect failed")

	// ErrNoInterface indicates the configured interface does not exist.
	ErrNoInterface = errors.New("link: interface not found")

	// ErrCommandFailed indicates an nmcli invocation returned non-zero.
	ErrCommandFailed = errors.New("link: command failed")
)
