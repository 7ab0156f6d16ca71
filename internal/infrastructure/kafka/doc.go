// Package kafka provides the optional Kafka snapshot sink.
//
// When enabled, the same JSON document published to MQTT is also written
// to a Kafka topic, keyed by the polling cycle timestamp. This feeds
// downstream stream processors without touching the MQTT path.
//
// # Configuration
//
//	kafka:
//	  enabled: true
//	  brokers: ["localhost:9092"]
//	  topic: "fusionsolar.snapshots"
package kafka
