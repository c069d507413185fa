package mqtt

import "strings"

// Home Assistant discovery topic layout:
//
//	<prefix>/<component>/<node_id>/<object_id>/config
//
// See https://www.home-assistant.io/integrations/mqtt/#discovery-topic
const (
	// DefaultDiscoveryPrefix is Home Assistant's default discovery prefix.
	DefaultDiscoveryPrefix = "homeassistant"

	// ComponentSensor is the discovery component for read-only sensor entities.
	ComponentSensor = "sensor"

	discoveryConfigSuffix = "config"
)

// Topics provides builders for the topics this node publishes to.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{Prefix: "homeassistant"}
//	topics.DiscoveryConfig("sensor", "pico_client", "temperature")
//	// Returns: "homeassistant/sensor/pico_client/temperature/config"
type Topics struct {
	// Prefix is the discovery prefix. Empty uses DefaultDiscoveryPrefix.
	Prefix string
}

// DiscoveryConfig returns the retained discovery config topic for one entity.
//
// Example: homeassistant/sensor/pico_client/humidity/config
func (t Topics) DiscoveryConfig(component, nodeID, objectID string) string {
	prefix := strings.TrimSuffix(t.Prefix, "/")
	if prefix == "" {
		prefix = DefaultDiscoveryPrefix
	}
	return strings.Join([]string{prefix, component, nodeID, objectID, discoveryConfigSuffix}, "/")
}

// SensorConfig returns the discovery config topic for a sensor entity.
//
// Example: homeassistant/sensor/pico_client/temperature/config
func (t Topics) SensorConfig(nodeID, objectID string) string {
	return t.DiscoveryConfig(ComponentSensor, nodeID, objectID)
}
