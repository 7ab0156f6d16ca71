package telemetry

import (
	"github.com/solarbridge/fusionsolar2mqtt/internal/fusionsolar"
	"github.com/solarbridge/fusionsolar2mqtt/internal/inventory"
)

// wattsPerKilowatt converts the inverter's mppt_power (kW) to W, the unit
// the meter's active_power already uses.
const wattsPerKilowatt = 1000

// derivePlantPower computes the plant's production, consumption and battery
// power from its device readings.
//
// Inputs per device class:
//   - production inverter: mppt_power (kW, PV side)
//   - battery: ch_discharge_power (kW equivalent sign convention: positive
//     while charging)
//   - meter: active_power (W, negative while injecting into the grid)
//
// The block is only produced when both a production figure and a meter
// figure are present; consumption cannot be derived otherwise. All outputs
// are in W:
//
//	production     = mppt_power * 1000
//	consumption    = production - meter - ch_battery + dis_battery
//	consumption_pv = min(production, consumption + ch_battery)
//
// Returns nil when the plant's devices do not support the derivation.
func derivePlantPower(plant inventory.Plant, readings []fusionsolar.DeviceRealtime) Values {
	byID := make(map[int64]fusionsolar.DeviceRealtime, len(readings))
	for _, r := range readings {
		byID[r.DeviceID] = r
	}

	var production, meter *float64
	var chBattery, disBattery *float64

	for _, dev := range plant.Devices {
		reading, ok := byID[dev.ID]
		if !ok {
			continue
		}

		switch {
		case dev.IsProduction():
			if v, ok := kpiFloat(reading.KPIs, "mppt_power"); ok {
				p := v * wattsPerKilowatt
				production = &p
			}
		case dev.IsBattery():
			if v, ok := kpiFloat(reading.KPIs, "ch_discharge_power"); ok {
				ch := max(v, 0)
				dis := max(-v, 0)
				chBattery = &ch
				disBattery = &dis
			}
		case dev.IsMeter():
			if v, ok := kpiFloat(reading.KPIs, "active_power"); ok {
				m := v
				meter = &m
			}
		}
	}

	if production == nil || meter == nil {
		return nil
	}

	ch, dis := 0.0, 0.0
	if chBattery != nil {
		ch = *chBattery
	}
	if disBattery != nil {
		dis = *disBattery
	}

	consumption := *production - *meter - ch + dis
	power := Values{
		"production":     *production,
		"consumption":    consumption,
		"consumption_pv": min(*production, consumption+ch),
	}

	if chBattery != nil && disBattery != nil {
		power["ch_battery"] = *chBattery
		power["dis_battery"] = *disBattery
	}

	return power
}

// kpiFloat extracts a numeric KPI from a realtime data map.
func kpiFloat(kpis map[string]any, key string) (float64, bool) {
	v, ok := kpis[key].(float64)
	return v, ok
}
