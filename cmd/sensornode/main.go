// Sensornode - DHT22 telemetry agent
//
// This is the main entry point for the sensornode agent. Each cycle it
// brings up the Wi-Fi link, opens an MQTT session, announces the device to
// Home Assistant once, then measures and publishes a reading before sleeping.
// In restart mode the node restarts after every cycle instead of looping.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	_ "github.com/nerrad567/gray-logic-sensornode/migrations"

	"github.com/nerrad567/gray-logic-sensornode/internal/discovery"
	"github.com/nerrad567/gray-logic-sensornode/internal/identity"
	"github.com/nerrad567/gray-logic-sensornode/internal/indicator"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sensornode/internal/power"
	"github.com/nerrad567/gray-logic-sensornode/internal/sensor"
	"github.com/nerrad567/gray-logic-sensornode/internal/supervisor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags. Everything else lives in the config file.
type options struct {
	configPath string
	location   string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("sensornode", pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", "", "path to config.yaml (default $SENSORNODE_CONFIG or "+defaultConfigPath+")")
	fs.StringVarP(&o.location, "location", "l", "", "location key to run with (default: location in config)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.configPath == "" {
		o.configPath = getConfigPath()
	}
	return o, nil
}

// getConfigPath returns the config path from SENSORNODE_CONFIG or the default.
func getConfigPath() string {
	if path := os.Getenv("SENSORNODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run wires the node and drives the supervisory loop until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	log := logging.Default()
	log.Info("starting sensornode",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rc, err := cfg.Resolve(opts.location)
	if err != nil {
		return fmt.Errorf("resolving location: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("location", rc.Location)
	log.Info("configuration loaded",
		"path", opts.configPath,
		"mode", rc.Mode,
		"sleep", rc.Sleep,
		"broker", rc.BrokerHost,
	)

	id, err := identity.FromConfig(cfg.Device, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading identity: %w", err)
	}
	log.Info("device identity", "client_id", id.ClientID, "unique_id", id.UniqueID)

	// Deferred calls never run when the node restarts, so resources are
	// released through a cleanup stack shared by defer and the restarter.
	var cleanup cleanupStack
	defer cleanup.run()

	var restarter power.Restarter
	if rc.RestartPerCycle() {
		restarter, err = power.New(cfg.Power.Restart, cfg.Power.ExitCode, log.Component("power"))
		if err != nil {
			return fmt.Errorf("creating restarter: %w", err)
		}
		restarter.OnRestart(cleanup.run)
	}

	led := openIndicator(cfg.Indicator, log)
	cleanup.push(func() {
		if closeErr := led.Close(); closeErr != nil {
			log.Warn("error closing indicator", "error", closeErr)
		}
	})

	deps := supervisor.Deps{
		Links:     newLinkProvider(cfg.Link, log.Component("link")),
		Sessions:  newSessionDialer(rc, cfg.Link.Interface, log.Component("mqtt")),
		Sensor:    sensor.NewDHT22(cfg.Sensor.Device),
		Indicator: led,
		Sleeper:   supervisor.TimerSleeper{},
		Logger:    log.Component("supervisor"),
		Announcer: discovery.NewAnnouncer(discovery.Config{
			Identity:   id,
			Prefix:     rc.DiscoveryPrefix,
			StateTopic: rc.Topic,
			QoS:        rc.QoS,
			Gap:        rc.DiscoveryGap,
		}, supervisor.TimerSleeper{}),
	}
	if restarter != nil {
		deps.Restarter = restarter
	}

	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(cfg.InfluxDB)
		if connErr != nil {
			log.Warn("InfluxDB unavailable, running without mirror", "error", connErr)
		} else {
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			cleanup.push(func() {
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			})
			deps.Sink = &influxSink{client: influxClient, deviceID: id.UniqueID, location: rc.Location}
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	if cfg.Journal.Enabled {
		rec, closeJournal, journalErr := openJournal(ctx, cfg.Journal, rc, log.Component("journal"))
		if journalErr != nil {
			return fmt.Errorf("opening journal: %w", journalErr)
		}
		cleanup.push(closeJournal)
		deps.Recorder = rec
	}

	loop, err := supervisor.New(supervisor.ConfigFromRuntime(rc), deps)
	if err != nil {
		return fmt.Errorf("creating supervisor: %w", err)
	}

	log.Info("initialisation complete, entering supervisory loop")
	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("shutdown signal received, cleaning up")
		return nil
	}
	return err
}

// openIndicator opens the status LED. A node without a working LED keeps
// running with the no-op indicator.
func openIndicator(cfg config.IndicatorConfig, log *logging.Logger) indicator.Indicator {
	if !cfg.Enabled {
		return indicator.Noop{}
	}
	led, err := indicator.OpenLED(cfg.Chip, cfg.Line)
	if err != nil {
		log.Warn("status LED unavailable", "chip", cfg.Chip, "line", cfg.Line, "error", err)
		return indicator.Noop{}
	}
	return led
}

// cleanupStack runs registered functions once, most recent first.
type cleanupStack struct {
	mu   sync.Mutex
	fns  []func()
	once sync.Once
}

func (c *cleanupStack) push(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func (c *cleanupStack) run() {
	c.once.Do(func() {
		c.mu.Lock()
		fns := c.fns
		c.mu.Unlock()
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	})
}
