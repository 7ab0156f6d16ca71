package fusionsolar

// Device type identifiers assigned by the northbound API (devTypeId).
// Only the types this bridge derives plant power from are named; all other
// types still have their KPIs fetched and published verbatim.
const (
	DeviceTypeStringInverter      = 1
	DeviceTypeResidentialInverter = 38
	DeviceTypeBattery             = 39
	DeviceTypePowerSensor         = 47
)

// Plant is a physical solar installation site registered in FusionSolar.
type Plant struct {
	Code     string  `json:"plantCode"`
	Name     string  `json:"plantName"`
	Address  string  `json:"plantAddress,omitempty"`
	Capacity float64 `json:"capacity,omitempty"`
}

// Device is an inverter, battery, meter or other hardware unit within a plant.
type Device struct {
	ID        int64  `json:"id"`
	Name      string `json:"devName"`
	TypeID    int    `json:"devTypeId"`
	PlantCode string `json:"stationCode"`
	Serial    string `json:"esnCode,omitempty"`
}

// IsProduction reports whether the device produces PV power and exposes
// mppt_power in its realtime KPIs.
func (d Device) IsProduction() bool {
	return d.TypeID == DeviceTypeStringInverter || d.TypeID == DeviceTypeResidentialInverter
}

// IsBattery reports whether the device is an energy storage unit exposing
// ch_discharge_power.
func (d Device) IsBattery() bool {
	return d.TypeID == DeviceTypeBattery
}

// IsMeter reports whether the device is a grid meter exposing active_power.
func (d Device) IsMeter() bool {
	return d.TypeID == DeviceTypePowerSensor
}

// PlantRealtime holds the realtime KPI map for one plant.
// KPI values are JSON scalars (numbers, strings, booleans).
type PlantRealtime struct {
	PlantCode string
	KPIs      map[string]any
}

// DeviceRealtime holds the realtime KPI map for one device.
type DeviceRealtime struct {
	DeviceID int64
	TypeID   int
	KPIs     map[string]any
}
