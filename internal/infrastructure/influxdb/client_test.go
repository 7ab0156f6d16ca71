package influxdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/influxdb"
	"github.com/solarbridge/fusionsolar2mqtt/internal/telemetry"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "fusionsolar-dev-token",
		Org:           "solar",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &influxdb.Client{}

	err := c.HealthCheck(context.Background())
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWriteSnapshot_NotConnected(t *testing.T) {
	c := &influxdb.Client{}

	snap := &telemetry.Snapshot{
		Plants: map[string]telemetry.Values{
			"Home": {"day_power": 12.5},
		},
		Devices: map[string]telemetry.Values{},
	}

	if got := c.WriteSnapshot(snap, time.Now()); got != 0 {
		t.Errorf("WriteSnapshot() on disconnected client = %d, want 0", got)
	}
}

func TestCloseNil(t *testing.T) {
	c := &influxdb.Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

// TestConnect_Integration requires a running InfluxDB at 127.0.0.1:8086.
func TestConnect_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}

	snap := &telemetry.Snapshot{
		Plants: map[string]telemetry.Values{
			"Home": {"day_power": 12.5, "state": "ok"},
		},
		Devices: map[string]telemetry.Values{
			"Home.Inverter": {"active_power": 3.2},
		},
	}

	if got := client.WriteSnapshot(snap, time.Now()); got != 2 {
		t.Errorf("WriteSnapshot() = %d numeric records, want 2", got)
	}
	client.Flush()
}
