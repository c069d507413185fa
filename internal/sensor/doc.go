// Package sensor reads the DHT22 temperature/humidity sensor and formats
// readings for the telemetry topic.
//
// The sensor is driven by the Linux kernel's dht11 IIO driver (which also
// handles the DHT22/AM2302), so a measurement is a pair of sysfs reads:
//
//	/sys/bus/iio/devices/iio:deviceN/in_temp_input              milli-°C
//	/sys/bus/iio/devices/iio:deviceN/in_humidityrelative_input  milli-%RH
//
// The driver performs the single-wire handshake on each read and returns
// EIO/ETIMEDOUT when the bus exchange fails; those surface as
// [ErrReadFailed].
package sensor
