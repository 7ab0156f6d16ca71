package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/solarbridge/fusionsolar2mqtt/internal/fusionsolar"
	"github.com/solarbridge/fusionsolar2mqtt/internal/inventory"
)

// epochMillisFloor distinguishes epoch-millisecond timestamps from ordinary
// numeric KPIs. Values above this (2001-09-09) in *_time keys are treated
// as timestamps.
const epochMillisFloor = 1e12

// Flatten converts plant and device realtime data into a Snapshot.
//
// Entity naming follows the vendor hierarchy: plants are keyed by plant
// name, devices by "<plant name>.<device name>". Entities the inventory
// cannot resolve fall back to their vendor code/ID so no data is dropped
// silently.
//
// Only scalar KPI values (numbers, strings, booleans) are kept; epoch
// millisecond timestamps are normalised to RFC 3339 UTC strings. Where a
// plant has both a production inverter and a meter reporting, a derived
// "power" block is added (see derivePlantPower).
//
// Returns an error when two records would collide on the same topic path
// within the snapshot.
func Flatten(plants []fusionsolar.PlantRealtime, devices []fusionsolar.DeviceRealtime, inv *inventory.Inventory) (*Snapshot, error) {
	snap := &Snapshot{
		Plants:  make(map[string]Values, len(plants)),
		Devices: make(map[string]Values, len(devices)),
	}

	for _, p := range plants {
		name, ok := inv.PlantName(p.PlantCode)
		if !ok {
			name = p.PlantCode
		}
		if _, exists := snap.Plants[name]; exists {
			return nil, fmt.Errorf("duplicate topic path plants/%s", name)
		}
		snap.Plants[name] = sanitize(p.KPIs)
	}

	for _, d := range devices {
		dev, plantName, ok := inv.DeviceByID(d.DeviceID)
		name := ""
		if ok {
			name = plantName + "." + dev.Name
		} else {
			name = "device." + strconv.FormatInt(d.DeviceID, 10)
		}
		if _, exists := snap.Devices[name]; exists {
			return nil, fmt.Errorf("duplicate topic path devices/%s", name)
		}
		snap.Devices[name] = sanitize(d.KPIs)
	}

	// Derived per-plant power figures from device readings.
	for _, plant := range inv.Plants {
		name, ok := inv.PlantName(plant.Code)
		if !ok {
			continue
		}
		values, ok := snap.Plants[name]
		if !ok {
			continue
		}

		power := derivePlantPower(plant, devices)
		if power == nil {
			continue
		}
		if _, exists := values["power"]; exists {
			return nil, fmt.Errorf("duplicate topic path plants/%s/power", name)
		}
		values["power"] = power
	}

	return snap, nil
}

// sanitize keeps scalar KPI values and normalises timestamps.
func sanitize(kpis map[string]any) Values {
	values := make(Values, len(kpis))
	for key, value := range kpis {
		switch v := value.(type) {
		case float64:
			if isTimestampKey(key) && v > epochMillisFloor {
				values[key] = time.UnixMilli(int64(v)).UTC().Format(time.RFC3339)
				continue
			}
			values[key] = v
		case string, bool:
			values[key] = v
		case int:
			values[key] = float64(v)
		case int64:
			values[key] = float64(v)
		}
		// nil, arrays and objects are dropped: they have no topic representation
	}
	return values
}

// isTimestampKey reports whether a KPI key names an epoch timestamp.
func isTimestampKey(key string) bool {
	return strings.HasSuffix(key, "_time") || strings.HasSuffix(key, "Time")
}
