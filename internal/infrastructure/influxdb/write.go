package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/solarbridge/fusionsolar2mqtt/internal/telemetry"
)

// measurementName is the single measurement all bridge records go into;
// records are distinguished by their category/entity/metric tags.
const measurementName = "fusionsolar"

// WriteRecord writes a single metric record to InfluxDB.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - category: "plants" or "devices"
//   - entity: Plant or device display name
//   - metric: Metric name (may contain a slash for derived metrics)
//   - value: The numeric value to record
//   - at: Timestamp of the polling cycle
func (c *Client) WriteRecord(category, entity, metric string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementName,
		map[string]string{
			"category": category,
			"entity":   entity,
			"metric":   metric,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteSnapshot writes all numeric records of a snapshot.
//
// String and boolean KPIs are skipped: the history sink tracks numeric
// series only, the full document lives on the MQTT topic.
//
// Returns the number of records written.
func (c *Client) WriteSnapshot(snap *telemetry.Snapshot, at time.Time) int {
	if !c.IsConnected() {
		return 0
	}

	written := 0
	for _, record := range snap.Records() {
		value, ok := record.Value.(float64)
		if !ok {
			continue
		}
		c.WriteRecord(record.Category, record.Entity, record.Metric, value, at)
		written++
	}

	return written
}
