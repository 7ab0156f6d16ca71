// fusionsolar2mqtt - FusionSolar to MQTT bridge
//
// Polls the Huawei FusionSolar northbound API for plant and device
// realtime metrics, flattens them into a single JSON document and
// publishes it to an MQTT broker. Optional sinks (InfluxDB, a local
// SQLite archive, Kafka) receive the same snapshot.
//
// With --list the flattened metric paths are printed to stdout instead
// of publishing, which is useful for discovering topic names.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/solarbridge/fusionsolar2mqtt/migrations"

	"github.com/solarbridge/fusionsolar2mqtt/internal/fusionsolar"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/database"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/influxdb"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/kafka"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/logging"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/mqtt"
	"github.com/solarbridge/fusionsolar2mqtt/internal/inventory"
	"github.com/solarbridge/fusionsolar2mqtt/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default settings file path
const defaultSettingsPath = "settings.yaml"

// intervalUnset marks the --interval flag as not provided, so the
// configured poll.interval applies.
const intervalUnset = -1

// options holds the parsed command line flags.
type options struct {
	settingsPath string
	deviceFile   string
	list         bool
	debug        bool
	interval     int
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command line arguments into options.
// Separated from main for testability.
func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("fusionsolar2mqtt", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.settingsPath, "settings", "", "path to settings.yaml (default: FUSIONSOLAR_CONFIG or ./settings.yaml)")
	fs.StringVar(&opts.deviceFile, "device-file", "", "override the device inventory cache path")
	fs.BoolVar(&opts.list, "list", false, "print flattened metric paths to stdout and exit")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.IntVar(&opts.interval, "interval", intervalUnset, "polling interval in seconds (0 = run once and exit)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - opts: Parsed command line flags
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, opts *options) error {
	// Use default logger until config is loaded
	log := logging.Default()

	// Load credentials from .env if present (optional)
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	// Load configuration
	settingsPath := getSettingsPath(opts)
	cfg, err := config.Load(settingsPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cfg, opts)
	log.Info("configuration loaded", "path", settingsPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.System, version)
	log.Info("starting fusionsolar2mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Connect to the FusionSolar northbound API
	fsClient, err := fusionsolar.NewClient(cfg.FusionSolar)
	if err != nil {
		return fmt.Errorf("creating FusionSolar client: %w", err)
	}
	if err := fsClient.Login(ctx); err != nil {
		return fmt.Errorf("logging in to FusionSolar: %w", err)
	}
	defer func() {
		if logoutErr := fsClient.Logout(context.Background()); logoutErr != nil {
			log.Warn("error logging out of FusionSolar", "error", logoutErr)
		}
	}()
	log.Info("FusionSolar session established", "base_url", cfg.FusionSolar.BaseURL)

	// Resolve the plant/device inventory (cached in the device file)
	inv, fromCache, err := inventory.Resolve(ctx, fsClient, cfg.FusionSolar.DeviceFile)
	if err != nil {
		return fmt.Errorf("resolving inventory: %w", err)
	}
	log.Info("inventory resolved",
		"plants", len(inv.Plants),
		"devices", len(inv.Devices()),
		"from_cache", fromCache,
	)

	// --list: poll once, print metric paths, done. No sinks needed.
	if opts.list {
		snap, pollErr := poll(ctx, fsClient, inv)
		if pollErr != nil {
			return fmt.Errorf("polling realtime data: %w", pollErr)
		}
		fmt.Print(telemetry.FormatList(cfg.MQTT.Topic, snap))
		return nil
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"topic", cfg.MQTT.Topic,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the local snapshot archive (optional)
	var archive *database.Archive
	if cfg.History.Enabled {
		db, openErr := database.Open(cfg.History)
		if openErr != nil {
			return fmt.Errorf("opening snapshot archive: %w", openErr)
		}
		defer func() {
			log.Info("closing snapshot archive")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing snapshot archive", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running archive migrations: %w", migrateErr)
		}
		archive = database.NewArchive(db)
		log.Info("snapshot archive ready", "path", db.Path(), "keep", cfg.History.Keep)
	} else {
		log.Info("snapshot archive disabled")
	}

	// Create the Kafka producer (optional)
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("creating Kafka producer: %w", err)
		}
		defer func() {
			log.Info("closing Kafka producer")
			if closeErr := producer.Close(); closeErr != nil {
				log.Error("error closing Kafka producer", "error", closeErr)
			}
		}()
		log.Info("Kafka producer ready", "topic", producer.Topic())
	} else {
		log.Info("Kafka disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient, archive); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	bridge := &bridge{
		cfg:     cfg,
		client:  fsClient,
		inv:     inv,
		mqtt:    mqttClient,
		influx:  influxClient,
		archive: archive,
		kafka:   producer,
		log:     log,
	}

	// First cycle: failures here are startup failures
	if err := bridge.cycle(ctx); err != nil {
		return fmt.Errorf("initial polling cycle: %w", err)
	}

	interval := cfg.Poll.GetInterval()
	if interval == 0 {
		log.Info("single cycle complete, exiting")
		return nil
	}

	log.Info("entering polling loop", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			return nil
		case <-ticker.C:
			// Per-cycle failures are logged, not fatal: a transient API
			// or sink error should not take the bridge down.
			if err := bridge.cycle(ctx); err != nil {
				if errors.Is(err, fusionsolar.ErrRateLimited) {
					log.Warn("FusionSolar rate limited, skipping cycle")
					continue
				}
				log.Error("polling cycle failed", "error", err)
			}
		}
	}
}

// bridge holds the polling pipeline and its sinks.
type bridge struct {
	cfg     *config.Config
	client  *fusionsolar.Client
	inv     *inventory.Inventory
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	archive *database.Archive
	kafka   *kafka.Producer
	log     *logging.Logger
}

// cycle performs one poll-flatten-publish round.
func (b *bridge) cycle(ctx context.Context) error {
	takenAt := time.Now()

	snap, err := poll(ctx, b.client, b.inv)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := b.mqtt.PublishSnapshot(payload); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	b.log.Info("snapshot published",
		"topic", b.mqtt.Topics().Telemetry(),
		"records", snap.Len(),
		"bytes", len(payload),
	)

	// Optional sinks are best-effort: log failures, keep publishing.
	if b.influx != nil {
		written := b.influx.WriteSnapshot(snap, takenAt)
		b.influx.Flush()
		b.log.Debug("snapshot written to InfluxDB", "points", written)
	}

	if b.archive != nil {
		if _, saveErr := b.archive.SaveSnapshot(ctx, takenAt, snap); saveErr != nil {
			b.log.Error("error archiving snapshot", "error", saveErr)
		} else if b.cfg.History.Keep > 0 {
			if _, pruneErr := b.archive.Prune(ctx, b.cfg.History.Keep); pruneErr != nil {
				b.log.Error("error pruning snapshot archive", "error", pruneErr)
			}
		}
	}

	if b.kafka != nil {
		key := takenAt.UTC().Format(time.RFC3339)
		if kafkaErr := b.kafka.Publish(ctx, key, payload); kafkaErr != nil {
			b.log.Error("error publishing to Kafka", "error", kafkaErr)
		}
	}

	return nil
}

// poll fetches plant and device realtime KPIs and flattens them.
func poll(ctx context.Context, client *fusionsolar.Client, inv *inventory.Inventory) (*telemetry.Snapshot, error) {
	plants, err := client.PlantRealtime(ctx, inv.PlantCodes())
	if err != nil {
		return nil, fmt.Errorf("fetching plant realtime data: %w", err)
	}

	devices, err := client.DeviceRealtime(ctx, inv.Devices())
	if err != nil {
		return nil, fmt.Errorf("fetching device realtime data: %w", err)
	}

	snap, err := telemetry.Flatten(plants, devices, inv)
	if err != nil {
		return nil, fmt.Errorf("flattening snapshot: %w", err)
	}
	return snap, nil
}

// getSettingsPath returns the configuration file path.
// Priority: --settings flag, FUSIONSOLAR_CONFIG environment variable, default.
func getSettingsPath(opts *options) string {
	if opts.settingsPath != "" {
		return opts.settingsPath
	}
	if path := os.Getenv("FUSIONSOLAR_CONFIG"); path != "" {
		return path
	}
	return defaultSettingsPath
}

// applyFlagOverrides applies command line flags on top of the loaded config.
func applyFlagOverrides(cfg *config.Config, opts *options) {
	if opts.deviceFile != "" {
		cfg.FusionSolar.DeviceFile = opts.deviceFile
	}
	if opts.interval >= 0 {
		cfg.Poll.Interval = opts.interval
	}
	if opts.debug {
		cfg.System.LogLevel = "debug"
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - archive: Snapshot archive to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, archive *database.Archive) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if archive != nil {
		if err := archive.HealthCheck(ctx); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	return nil
}
