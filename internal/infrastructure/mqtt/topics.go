package mqtt

// Topics builds the topic paths published by this bridge, rooted at the
// configured topic root (mqtt.topic in settings.yaml).
//
//	topics := mqtt.Topics{Root: cfg.MQTT.Topic}
//	topics.Telemetry() // "fusionsolar"
//	topics.Status()    // "fusionsolar/bridge/status"
type Topics struct {
	Root string
}

// Telemetry returns the topic the flattened snapshot document is published
// under. The full snapshot is published as one JSON payload on the root
// itself; individual metrics are addressed inside the payload as
// category/entity/metric.
func (t Topics) Telemetry() string {
	return t.Root
}

// Status returns the bridge availability topic, used for the online/offline
// status messages and the Last Will and Testament.
func (t Topics) Status() string {
	return t.Root + "/bridge/status"
}
