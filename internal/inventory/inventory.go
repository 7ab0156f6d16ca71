package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/solarbridge/fusionsolar2mqtt/internal/fusionsolar"
)

// filePermissions is the permission mode for the cache file.
const filePermissions = 0600

// Inventory is the discovered set of plants and their devices.
//
// Discovery is expensive against the rate-limited northbound API, so the
// inventory is cached on disk between runs. Deleting the cache file forces
// re-discovery.
type Inventory struct {
	Plants []Plant `json:"plants"`
}

// Plant pairs a FusionSolar plant with its devices.
type Plant struct {
	fusionsolar.Plant
	Devices []fusionsolar.Device `json:"devices"`
}

// Load reads a cached inventory from path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory file: %w", err)
	}

	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parsing inventory file %s: %w", path, err)
	}

	return &inv, nil
}

// Save writes the inventory to path as indented JSON.
func (inv *Inventory) Save(path string) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}

	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing inventory file: %w", err)
	}

	return nil
}

// Refresh discovers the full plant and device inventory from FusionSolar.
func Refresh(ctx context.Context, client *fusionsolar.Client) (*Inventory, error) {
	plants, err := client.PlantList(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(plants))
	for i, p := range plants {
		codes[i] = p.Code
	}

	devices, err := client.DeviceList(ctx, codes)
	if err != nil {
		return nil, err
	}

	byPlant := make(map[string][]fusionsolar.Device)
	for _, d := range devices {
		byPlant[d.PlantCode] = append(byPlant[d.PlantCode], d)
	}

	inv := &Inventory{Plants: make([]Plant, len(plants))}
	for i, p := range plants {
		inv.Plants[i] = Plant{
			Plant:   p,
			Devices: byPlant[p.Code],
		}
	}

	return inv, nil
}

// Resolve returns the inventory from the cache file if it exists, otherwise
// discovers it from FusionSolar and writes the cache. A corrupt cache file
// is treated like a missing one: discovery runs and rewrites it. Other read
// failures (permissions, I/O) are fatal.
//
// Returns:
//   - *Inventory: The resolved inventory
//   - bool: true if the inventory came from the cache file
//   - error: If neither source yields an inventory
func Resolve(ctx context.Context, client *fusionsolar.Client, path string) (*Inventory, bool, error) {
	inv, err := Load(path)
	if err == nil {
		return inv, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) && !isCorrupt(err) {
		return nil, false, err
	}

	inv, err = Refresh(ctx, client)
	if err != nil {
		return nil, false, err
	}

	if err := inv.Save(path); err != nil {
		return nil, false, err
	}

	return inv, false, nil
}

// isCorrupt reports whether a cache read failed on malformed JSON rather
// than an I/O problem.
func isCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// PlantCodes returns the codes of all plants in the inventory.
func (inv *Inventory) PlantCodes() []string {
	codes := make([]string, len(inv.Plants))
	for i, p := range inv.Plants {
		codes[i] = p.Code
	}
	return codes
}

// Devices returns all devices across all plants.
func (inv *Inventory) Devices() []fusionsolar.Device {
	var devices []fusionsolar.Device
	for _, p := range inv.Plants {
		devices = append(devices, p.Devices...)
	}
	return devices
}

// PlantName resolves a plant code to its display name.
func (inv *Inventory) PlantName(code string) (string, bool) {
	for _, p := range inv.Plants {
		if p.Code == code {
			return p.Name, true
		}
	}
	return "", false
}

// DeviceByID resolves a device ID to the device and its plant's display name.
func (inv *Inventory) DeviceByID(id int64) (fusionsolar.Device, string, bool) {
	for _, p := range inv.Plants {
		for _, d := range p.Devices {
			if d.ID == id {
				return d, p.Name, true
			}
		}
	}
	return fusionsolar.Device{}, "", false
}
