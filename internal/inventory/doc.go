// Package inventory caches the discovered FusionSolar plant/device inventory.
//
// The northbound API is rate limited, so plant and device discovery is done
// once and persisted to a JSON file (devices.json by default). Subsequent
// runs read the cache; deleting the file forces re-discovery on the next run.
//
// The inventory also provides the name lookups used when flattening realtime
// data: realtime responses identify entities by plant code and device ID,
// while published topics use human-readable names.
package inventory
