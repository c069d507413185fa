package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// Write errors are asynchronous and reach the callback set with SetOnError.
//
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // Run without the mirror
//	}
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates InfluxDB integration is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
