// Package influxdb mirrors sensor readings into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. The mirror is
// optional: MQTT stays the system of record, and a reading that cannot be
// mirrored is never retried or buffered.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Warn("influxdb mirror unavailable", "error", err)
//	}
//	defer client.Close()
//
//	client.WriteReading("pico_dht22_001", "HOME", 23.5, 55.0)
//	client.Flush()
//
// # Error Handling
//
// Write errors are delivered asynchronously via SetOnError.
// Connection and health check errors are returned directly.
package influxdb
