package sensor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIO attribute files exposed by the dht11 driver.
const (
	tempAttr     = "in_temp_input"
	humidityAttr = "in_humidityrelative_input"

	// milli is the scale of both IIO attributes.
	milli = 1000.0
)

// DHT22 datasheet operating range.
const (
	minTemperature = -40.0
	maxTemperature = 80.0
	minHumidity    = 0.0
	maxHumidity    = 100.0
)

// DHT22 reads a DHT22 through its IIO sysfs device directory.
type DHT22 struct {
	dir string
}

// NewDHT22 returns a reader for the IIO device in dir,
// e.g. /sys/bus/iio/devices/iio:device0.
func NewDHT22(dir string) *DHT22 {
	return &DHT22{dir: dir}
}

// Device returns the IIO device directory.
func (d *DHT22) Device() string {
	return d.dir
}

// Measure performs one blocking read of temperature and humidity.
//
// Returns:
//   - Reading: Temperature in °C and humidity in %RH
//   - error: Wrapping ErrReadFailed (bus/IO error) or ErrOutOfRange
func (d *DHT22) Measure(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	temp, err := d.readMilli(tempAttr)
	if err != nil {
		return Reading{}, err
	}

	hum, err := d.readMilli(humidityAttr)
	if err != nil {
		return Reading{}, err
	}

	r := Reading{Temperature: temp, Humidity: hum}
	if r.Temperature < minTemperature || r.Temperature > maxTemperature {
		return Reading{}, fmt.Errorf("%w: temperature %.1f°C", ErrOutOfRange, r.Temperature)
	}
	if r.Humidity < minHumidity || r.Humidity > maxHumidity {
		return Reading{}, fmt.Errorf("%w: humidity %.1f%%", ErrOutOfRange, r.Humidity)
	}

	return r, nil
}

// readMilli reads one milli-scaled integer attribute.
func (d *DHT22) readMilli(attr string) (float64, error) {
	path := filepath.Join(d.dir, attr)

	data, err := os.ReadFile(path) // #nosec G304 -- path is built from operator config
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrReadFailed, attr, err)
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: parsing %q: %w", ErrReadFailed, attr, strings.TrimSpace(string(data)), err)
	}

	return float64(raw) / milli, nil
}
