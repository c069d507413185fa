package discovery

import "github.com/nerrad567/gray-logic-sensornode/internal/identity"

// Entity object ids, used in discovery topics.
const (
	ObjectTemperature = "temperature"
	ObjectHumidity    = "humidity"
)

// DeviceInfo holds the Home Assistant device registry fields shared by
// both entity payloads.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// SensorConfig is the JSON payload of one sensor discovery message.
type SensorConfig struct {
	Name              string     `json:"name"`
	StateTopic        string     `json:"state_topic"`
	UnitOfMeasurement string     `json:"unit_of_measurement"`
	ValueTemplate     string     `json:"value_template"`
	DeviceClass       string     `json:"device_class"`
	UniqueID          string     `json:"unique_id"`
	Device            DeviceInfo `json:"device"`
}

// NewDeviceInfo builds the device block from the node identity.
func NewDeviceInfo(id identity.Identity) DeviceInfo {
	return DeviceInfo{
		Identifiers:  []string{id.UniqueID},
		Name:         id.Name,
		Model:        id.Model,
		Manufacturer: id.Manufacturer,
	}
}

// TemperatureConfig returns the temperature entity payload.
func TemperatureConfig(id identity.Identity, stateTopic string) SensorConfig {
	return SensorConfig{
		Name:              "DHT22 Temperature",
		StateTopic:        stateTopic,
		UnitOfMeasurement: "°C",
		ValueTemplate:     "{{ value_json.temperature }}",
		DeviceClass:       "temperature",
		UniqueID:          id.TemperatureUniqueID(),
		Device:            NewDeviceInfo(id),
	}
}

// HumidityConfig returns the humidity entity payload.
func HumidityConfig(id identity.Identity, stateTopic string) SensorConfig {
	return SensorConfig{
		Name:              "DHT22 Humidity",
		StateTopic:        stateTopic,
		UnitOfMeasurement: "%",
		ValueTemplate:     "{{ value_json.humidity }}",
		DeviceClass:       "humidity",
		UniqueID:          id.HumidityUniqueID(),
		Device:            NewDeviceInfo(id),
	}
}
