// Package mqtt provides the MQTT publishing sink for the FusionSolar bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Snapshot publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topics
//
// Everything is rooted at the configured topic (mqtt.topic in
// settings.yaml, default "fusionsolar"):
//
//	<root>                 retained JSON snapshot of all plants/devices
//	<root>/bridge/status   retained online/offline status + LWT
//
// The bridge is publish-only; it never subscribes.
//
// # Security Considerations
//
//   - Enable TLS for brokers outside the local network (broker.tls: true)
//   - Credentials are validated against broker ACL
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.PublishSnapshot(payload)
package mqtt
