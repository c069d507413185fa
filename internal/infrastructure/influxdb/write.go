package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement and tag names used by the mirror.
const (
	measurementClimate = "climate"

	tagDeviceID = "device_id"
	tagLocation = "location"

	fieldTemperature = "temperature_c"
	fieldHumidity    = "humidity_pct"
)

// ReadingPoint builds the point written for one reading.
//
// Example line protocol:
//
//	climate,device_id=pico_dht22_001,location=HOME temperature_c=23.5,humidity_pct=55 1700000000000000000
func ReadingPoint(deviceID, location string, temperature, humidity float64, ts time.Time) *write.Point {
	tags := map[string]string{
		tagDeviceID: deviceID,
	}
	if location != "" {
		tags[tagLocation] = location
	}

	return write.NewPoint(
		measurementClimate,
		tags,
		map[string]interface{}{
			fieldTemperature: temperature,
			fieldHumidity:    humidity,
		},
		ts,
	)
}

// WriteReading queues one temperature/humidity reading.
//
// The write is non-blocking; call Flush to force delivery.
func (c *Client) WriteReading(deviceID, location string, temperature, humidity float64) {
	c.WriteReadingWithTime(deviceID, location, temperature, humidity, time.Now())
}

// WriteReadingWithTime queues a reading with an explicit timestamp.
func (c *Client) WriteReadingWithTime(deviceID, location string, temperature, humidity float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(ReadingPoint(deviceID, location, temperature, humidity, ts))
}
