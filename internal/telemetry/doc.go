// Package telemetry turns FusionSolar realtime data into the published
// snapshot document.
//
// A snapshot is the complete set of metric records retrieved in one polling
// cycle, organised as category -> entity -> metric -> value:
//
//	{
//	  "plants":  { "Home": { "day_power": 12.5, "power": {...} } },
//	  "devices": { "Home.Inverter": { "active_power": 3.2 } }
//	}
//
// Every record has a deterministic topic path category/entity/metric which
// is unique within one snapshot; Flatten fails if the vendor reports two
// entities that would collide on a path.
//
// The package is pure: no I/O, no side effects. Both output modes (the MQTT
// JSON payload and the --list rendering) consume the same Snapshot.
package telemetry
