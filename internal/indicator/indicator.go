// Package indicator drives the status LED that blinks around each
// measurement.
//
// The LED is a GPIO output requested through the Linux GPIO character
// device. Indicator failures never affect a cycle: callers log and carry on.
package indicator

import (
	"errors"
	"fmt"
	"sync"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// ErrClosed is returned when toggling an LED after Close.
var ErrClosed = errors.New("indicator: closed")

// Indicator is a two-state visual signal.
type Indicator interface {
	Toggle() error
	Close() error
}

// outputLine is the subset of *gpiod.Line used by LED.
type outputLine interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// LED is a status LED on a GPIO line.
type LED struct {
	mu   sync.Mutex
	chip *gpiod.Chip
	line outputLine
}

// OpenLED requests offset on chip (e.g. "gpiochip0") as an output, initially off.
func OpenLED(chipName string, offset int) (*LED, error) {
	chip, err := gpiod.NewChip(chipName, gpiod.WithConsumer("sensornode"))
	if err != nil {
		return nil, fmt.Errorf("open chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(offset, gpiod.AsOutput(0))
	if err != nil {
		chip.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}

	return &LED{chip: chip, line: line}, nil
}

// newLED wraps an already requested line.
func newLED(line outputLine) *LED {
	return &LED{line: line}
}

// Toggle inverts the LED.
func (l *LED) Toggle() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.line == nil {
		return ErrClosed
	}

	v, err := l.line.Value()
	if err != nil {
		return fmt.Errorf("read led: %w", err)
	}
	if err := l.line.SetValue(1 - v); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// Close switches the LED off and releases the line and chip.
func (l *LED) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.line != nil {
		if err := l.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch led off: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
		l.line = nil
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		l.chip = nil
	}

	return errors.Join(errs...)
}

// Noop is an Indicator for nodes without an LED.
type Noop struct{}

// Toggle does nothing.
func (Noop) Toggle() error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }
