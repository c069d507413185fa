// Package identity holds the device identity announced to Home Assistant
// and used as the MQTT client id.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/config"
)

// uniqueIDFile is the file under the data directory holding a generated unique id.
const uniqueIDFile = "unique_id"

// Identity is the immutable device identity.
type Identity struct {
	// ClientID is the MQTT client id and the discovery node id.
	ClientID string
	// UniqueID is the Home Assistant device identifier and entity id prefix.
	UniqueID     string
	Name         string
	Model        string
	Manufacturer string
}

// TemperatureUniqueID returns the unique_id of the temperature entity.
func (id Identity) TemperatureUniqueID() string {
	return id.UniqueID + "_temp"
}

// HumidityUniqueID returns the unique_id of the humidity entity.
func (id Identity) HumidityUniqueID() string {
	return id.UniqueID + "_humidity"
}

// FromConfig builds the identity from the device config section. When no
// unique id is configured, one is loaded from (or generated into) dataDir
// so Home Assistant keeps the entity history across reinstalls.
func FromConfig(cfg config.DeviceConfig, dataDir string) (Identity, error) {
	if cfg.ClientID == "" {
		return Identity{}, errors.New("identity: client id is required")
	}

	uid := cfg.UniqueID
	if uid == "" {
		var err error
		uid, err = LoadOrCreateUniqueID(dataDir)
		if err != nil {
			return Identity{}, err
		}
	}

	return Identity{
		ClientID:     cfg.ClientID,
		UniqueID:     uid,
		Name:         cfg.Name,
		Model:        cfg.Model,
		Manufacturer: cfg.Manufacturer,
	}, nil
}

// LoadOrCreateUniqueID reads the unique id from dataDir, or generates a
// new UUIDv7 and persists it if the file is missing or empty.
func LoadOrCreateUniqueID(dataDir string) (string, error) {
	path := filepath.Join(dataDir, uniqueIDFile)

	data, err := os.ReadFile(path) // #nosec G304 -- path is built from operator config
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("identity: reading %s: %w", path, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("identity: generating unique id: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return "", fmt.Errorf("identity: creating %s: %w", dataDir, err)
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("identity: persisting unique id to %s: %w", path, err)
	}

	return id.String(), nil
}
