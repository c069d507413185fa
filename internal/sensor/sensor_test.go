package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeIIO creates a fake IIO device directory with the given raw attribute values.
// An empty value leaves the attribute absent.
func writeIIO(t *testing.T, temp, humidity string) string {
	t.Helper()
	dir := t.TempDir()
	if temp != "" {
		if err := os.WriteFile(filepath.Join(dir, tempAttr), []byte(temp), 0o600); err != nil {
			t.Fatalf("writing %s: %v", tempAttr, err)
		}
	}
	if humidity != "" {
		if err := os.WriteFile(filepath.Join(dir, humidityAttr), []byte(humidity), 0o600); err != nil {
			t.Fatalf("writing %s: %v", humidityAttr, err)
		}
	}
	return dir
}

func TestReading_Payload(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		want    string
	}{
		{
			name:    "rounds to one decimal",
			reading: Reading{Temperature: 23.456, Humidity: 55.04},
			want:    `{"temperature": 23.5, "humidity": 55.0}`,
		},
		{
			name:    "whole numbers keep a decimal",
			reading: Reading{Temperature: 20, Humidity: 40},
			want:    `{"temperature": 20.0, "humidity": 40.0}`,
		},
		{
			name:    "negative temperature",
			reading: Reading{Temperature: -12.34, Humidity: 99.96},
			want:    `{"temperature": -12.3, "humidity": 100.0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.reading.Payload()
			if err != nil {
				t.Fatalf("Payload() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Payload() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReading_PayloadIsValidJSON(t *testing.T) {
	payload, err := Reading{Temperature: 21.25, Humidity: 48.75}.Payload()
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload %s is not valid JSON: %v", payload, err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d fields, want 2", len(decoded))
	}
	if _, ok := decoded["temperature"]; !ok {
		t.Error("payload missing temperature")
	}
	if _, ok := decoded["humidity"]; !ok {
		t.Error("payload missing humidity")
	}
}

func TestReading_PayloadRejectsNonFinite(t *testing.T) {
	for _, r := range []Reading{
		{Temperature: math.NaN(), Humidity: 50},
		{Temperature: 20, Humidity: math.Inf(1)},
	} {
		if _, err := r.Payload(); !errors.Is(err, ErrInvalidReading) {
			t.Errorf("Payload(%v) error = %v, want ErrInvalidReading", r, err)
		}
	}
}

func TestReading_MarshalJSON(t *testing.T) {
	got, err := json.Marshal(Reading{Temperature: 18.04, Humidity: 62.35})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	// encoding/json compacts Marshaler output.
	want := `{"temperature":18.0,"humidity":62.4}`
	if string(got) != want {
		t.Errorf("json.Marshal() = %s, want %s", got, want)
	}
}

func TestDHT22_Measure(t *testing.T) {
	dir := writeIIO(t, "23456\n", "55040\n")

	r, err := NewDHT22(dir).Measure(context.Background())
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if r.Temperature != 23.456 {
		t.Errorf("Temperature = %v, want 23.456", r.Temperature)
	}
	if r.Humidity != 55.04 {
		t.Errorf("Humidity = %v, want 55.04", r.Humidity)
	}
}

func TestDHT22_MeasureErrors(t *testing.T) {
	tests := []struct {
		name     string
		temp     string
		humidity string
		wantErr  error
	}{
		{name: "missing temperature", temp: "", humidity: "50000", wantErr: ErrReadFailed},
		{name: "missing humidity", temp: "20000", humidity: "", wantErr: ErrReadFailed},
		{name: "garbage value", temp: "abc", humidity: "50000", wantErr: ErrReadFailed},
		{name: "temperature too high", temp: "95000", humidity: "50000", wantErr: ErrOutOfRange},
		{name: "humidity too high", temp: "20000", humidity: "120000", wantErr: ErrOutOfRange},
		{name: "temperature too low", temp: "-41000", humidity: "50000", wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeIIO(t, tt.temp, tt.humidity)
			_, err := NewDHT22(dir).Measure(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Measure() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDHT22_MeasureCancelled(t *testing.T) {
	dir := writeIIO(t, "20000", "50000")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDHT22(dir).Measure(ctx)
	if !errors.Is(err, ErrReadFailed) {
		t.Errorf("Measure() error = %v, want ErrReadFailed", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Measure() error = %v, want context.Canceled", err)
	}
}
