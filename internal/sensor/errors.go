package sensor

import "errors"

// Sentinel errors for sensor operations.
var (
	// ErrReadFailed indicates the bus exchange with the sensor failed.
	ErrReadFailed = errors.New("sensor: read failed")

	// ErrOutOfRange indicates the sensor returned a physically impossible value.
	ErrOutOfRange = errors.New("sensor: value out of range")

	// ErrInvalidReading indicates a reading that cannot be serialised (NaN or Inf).
	ErrInvalidReading = errors.New("sensor: invalid reading")
)
