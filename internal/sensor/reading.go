package sensor

import (
	"fmt"
	"math"
	"strconv"
)

// Reading is one temperature/humidity measurement.
// It is produced once per cycle and serialised immediately.
type Reading struct {
	// Temperature in degrees Celsius.
	Temperature float64
	// Humidity in percent relative humidity.
	Humidity float64
}

// Validate rejects values that cannot be published as JSON numbers.
func (r Reading) Validate() error {
	if !finite(r.Temperature) || !finite(r.Humidity) {
		return fmt.Errorf("%w: temperature=%v humidity=%v", ErrInvalidReading, r.Temperature, r.Humidity)
	}
	return nil
}

// Payload renders the telemetry wire format:
//
//	{"temperature": 23.5, "humidity": 55.0}
//
// Both values are rounded to one decimal place and the field order is fixed.
// Home Assistant's value templates select the fields by name.
func (r Reading) Payload() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 48)
	buf = append(buf, `{"temperature": `...)
	buf = strconv.AppendFloat(buf, r.Temperature, 'f', 1, 64)
	buf = append(buf, `, "humidity": `...)
	buf = strconv.AppendFloat(buf, r.Humidity, 'f', 1, 64)
	buf = append(buf, '}')
	return buf, nil
}

// MarshalJSON implements json.Marshaler using the telemetry wire format.
func (r Reading) MarshalJSON() ([]byte, error) {
	return r.Payload()
}

// String implements fmt.Stringer.
func (r Reading) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%", r.Temperature, r.Humidity)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
