// Package influxdb provides the optional InfluxDB history sink.
//
// When enabled, every numeric metric record of a snapshot is written as a
// point in the "fusionsolar" measurement, tagged with category, entity and
// metric. This gives polling cycles a queryable history without affecting
// the MQTT publishing path; MQTT remains the authoritative output.
//
// Writes are batched and non-blocking. Async write errors are surfaced via
// SetOnError and the buffer is flushed after every polling cycle.
//
// # Configuration
//
//	influxdb:
//	  enabled: true
//	  url: "http://localhost:8086"
//	  token: ""            # set FUSIONSOLAR_INFLUXDB_TOKEN instead
//	  org: "home"
//	  bucket: "solar"
//	  batch_size: 100
//	  flush_interval: 10   # seconds
package influxdb
