package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/mdns"
	"github.com/nerrad567/gray-logic-sensornode/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-sensornode/internal/journal"
	"github.com/nerrad567/gray-logic-sensornode/internal/link"
	"github.com/nerrad567/gray-logic-sensornode/internal/sensor"
	"github.com/nerrad567/gray-logic-sensornode/internal/supervisor"
)

// recordTimeout bounds journal writes. Writes run detached from the run
// context so the cycle interrupted by shutdown is still recorded.
const recordTimeout = 5 * time.Second

// linkProvider adapts a link backend to supervisor.LinkProvider.
type linkProvider struct {
	connect func(ctx context.Context, ssid, password string) (*link.Link, error)
}

func newLinkProvider(cfg config.LinkConfig, log *logging.Logger) *linkProvider {
	if cfg.Driver == "static" {
		return &linkProvider{connect: link.NewStatic(cfg.Interface).Connect}
	}
	n := link.NewNMCLI(cfg.NMCLIPath, cfg.Interface)
	n.SetLogger(log)
	return &linkProvider{connect: n.Connect}
}

// Connect implements supervisor.LinkProvider.
func (p *linkProvider) Connect(ctx context.Context, ssid, password string) (supervisor.Link, error) {
	l, err := p.connect(ctx, ssid, password)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// brokerResolver finds the broker when no host is configured.
type brokerResolver interface {
	Resolve(ctx context.Context) (mdns.Broker, error)
}

// sessionDialer opens one MQTT session per cycle.
type sessionDialer struct {
	opts     mqtt.Options
	resolver brokerResolver
	connect  func(ctx context.Context, o mqtt.Options) (supervisor.Session, error)
	log      *logging.Logger
}

func newSessionDialer(rc config.RuntimeConfig, iface string, log *logging.Logger) *sessionDialer {
	d := &sessionDialer{opts: mqtt.OptionsFromRuntime(rc), log: log}
	if rc.BrokerMDNS && rc.BrokerHost == "" {
		d.resolver = mdns.NewResolver(rc.BrokerTLS, iface)
	}
	d.connect = func(ctx context.Context, o mqtt.Options) (supervisor.Session, error) {
		c, err := mqtt.Connect(ctx, o)
		if err != nil {
			return nil, err
		}
		c.SetLogger(log)
		log.Debug("session open", "broker", c.Broker())
		return c, nil
	}
	return d
}

// Dial implements supervisor.SessionDialer. The broker is looked up again
// on every dial so a broker that moved is found on the next cycle.
func (d *sessionDialer) Dial(ctx context.Context) (supervisor.Session, error) {
	opts := d.opts
	if d.resolver != nil {
		b, err := d.resolver.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving broker: %w", err)
		}
		opts.Host, opts.Port = b.Host, b.Port
		d.log.Debug("broker resolved", "instance", b.Instance, "addr", b.Address())
	}
	return d.connect(ctx, opts)
}

// readingWriter is the part of the InfluxDB client the sink uses.
type readingWriter interface {
	WriteReading(deviceID, location string, temperature, humidity float64)
	Flush()
}

// influxSink mirrors published readings to InfluxDB. The batch is flushed
// every time since a restart-mode node never lives long enough for the
// flush interval.
type influxSink struct {
	client   readingWriter
	deviceID string
	location string
}

var _ readingWriter = (*influxdb.Client)(nil)

// RecordReading implements supervisor.ReadingSink.
func (s *influxSink) RecordReading(_ context.Context, r sensor.Reading) {
	s.client.WriteReading(s.deviceID, s.location, r.Temperature, r.Humidity)
	s.client.Flush()
}

// journalRecorder writes every cycle report to the journal.
type journalRecorder struct {
	repo   journal.Repository
	bootID int64
	keep   int
	log    *logging.Logger
}

// RecordCycle implements supervisor.Recorder.
func (j *journalRecorder) RecordCycle(ctx context.Context, report supervisor.CycleReport) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	c := cycleFromReport(j.bootID, report)
	if err := j.repo.RecordCycle(ctx, c); err != nil {
		j.log.Warn("recording cycle", "cycle", report.Cycle, "error", err)
		return
	}
	if j.keep <= 0 {
		return
	}
	if n, err := j.repo.Prune(ctx, j.keep); err != nil {
		j.log.Warn("pruning journal", "error", err)
	} else if n > 0 {
		j.log.Debug("journal pruned", "removed", n)
	}
}

func cycleFromReport(bootID int64, r supervisor.CycleReport) *journal.Cycle {
	c := &journal.Cycle{
		BootID:     bootID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Outcome:    r.Outcome(),
		Detail:     r.Detail(),
		Announced:  r.Announced,
	}
	if r.Reading != nil {
		t, h := r.Reading.Temperature, r.Reading.Humidity
		c.Temperature, c.Humidity = &t, &h
	}
	return c
}

// openJournal opens, checks and migrates the journal database, records the boot
// and logs what the previous run ended with.
//
// Returns:
//   - *journalRecorder: Recorder bound to the new boot
//   - func(): Closes the database
//   - error: If the database cannot be opened, migrated or written
func openJournal(ctx context.Context, cfg config.JournalConfig, rc config.RuntimeConfig, log *logging.Logger) (*journalRecorder, func(), error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing journal", "error", closeErr)
		}
	}

	if err := db.HealthCheck(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	repo := journal.NewSQLiteRepository(db.DB)

	last, err := repo.LastCycle(ctx)
	switch {
	case errors.Is(err, journal.ErrNotFound):
		log.Info("journal empty")
	case err != nil:
		closeDB()
		return nil, nil, err
	default:
		log.Info("previous cycle",
			"outcome", last.Outcome,
			"detail", last.Detail,
			"finished_at", last.FinishedAt,
		)
	}

	boot := &journal.Boot{
		StartedAt: time.Now(),
		Location:  rc.Location,
		Mode:      rc.Mode,
		Version:   version,
	}
	if err := repo.StartBoot(ctx, boot); err != nil {
		closeDB()
		return nil, nil, err
	}

	boots, err := repo.BootCount(ctx)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	log.Info("journal opened", "path", db.Path(), "boot", boot.ID, "boots", boots)

	return &journalRecorder{repo: repo, bootID: boot.ID, keep: cfg.KeepCycles, log: log}, closeDB, nil
}
