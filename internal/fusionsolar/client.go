package fusionsolar

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
)

// batchSize is the maximum number of plant codes or device IDs the
// northbound API accepts per request.
const batchSize = 100

// stationsPageSize is the page size used when listing plants.
const stationsPageSize = 100

// Client provides typed access to the FusionSolar northbound API.
//
// Thread Safety:
//   - All methods are safe for concurrent use; the underlying session
//     serialises token renewal.
type Client struct {
	session *session
}

// NewClient creates an unauthenticated client from configuration.
// Call Login before issuing any other request.
//
// Parameters:
//   - cfg: FusionSolar configuration from settings.yaml
//
// Returns:
//   - *Client: Client ready for Login
//   - error: If the HTTP client cannot be constructed
func NewClient(cfg config.FusionSolarConfig) (*Client, error) {
	s, err := newSession(strings.TrimRight(cfg.BaseURL, "/"), cfg.Username, cfg.Password, cfg.GetRequestTimeout())
	if err != nil {
		return nil, err
	}
	return &Client{session: s}, nil
}

// Login authenticates the session. It must be called once before any data
// request; subsequent session expiry is handled transparently.
func (c *Client) Login(ctx context.Context) error {
	return c.session.login(ctx)
}

// Logout releases the session token.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.logout(ctx)
}

// stationsPage is the paginated response of /thirdData/stations.
type stationsPage struct {
	Total     int     `json:"total"`
	PageCount int     `json:"pageCount"`
	PageNo    int     `json:"pageNo"`
	List      []Plant `json:"list"`
}

// PlantList retrieves all plants visible to the northbound account,
// following pagination until the full list is collected.
func (c *Client) PlantList(ctx context.Context) ([]Plant, error) {
	var plants []Plant

	for pageNo := 1; ; pageNo++ {
		req := map[string]int{
			"pageNo":   pageNo,
			"pageSize": stationsPageSize,
		}

		var page stationsPage
		if err := c.session.call(ctx, "/thirdData/stations", req, &page); err != nil {
			return nil, fmt.Errorf("listing plants (page %d): %w", pageNo, err)
		}

		plants = append(plants, page.List...)

		if pageNo >= page.PageCount || len(page.List) == 0 {
			break
		}
	}

	return plants, nil
}

// DeviceList retrieves the devices belonging to the given plants.
// Plant codes are batched to respect the API's per-request limit.
func (c *Client) DeviceList(ctx context.Context, plantCodes []string) ([]Device, error) {
	var devices []Device

	for _, batch := range batchStrings(plantCodes, batchSize) {
		req := map[string]string{
			"stationCodes": strings.Join(batch, ","),
		}

		var list []Device
		if err := c.session.call(ctx, "/thirdData/getDevList", req, &list); err != nil {
			return nil, fmt.Errorf("listing devices: %w", err)
		}
		devices = append(devices, list...)
	}

	return devices, nil
}

// stationRealKpiEntry is one element of the /thirdData/getStationRealKpi response.
type stationRealKpiEntry struct {
	StationCode string         `json:"stationCode"`
	DataItemMap map[string]any `json:"dataItemMap"`
}

// PlantRealtime retrieves the current KPI map for each given plant.
func (c *Client) PlantRealtime(ctx context.Context, plantCodes []string) ([]PlantRealtime, error) {
	var result []PlantRealtime

	for _, batch := range batchStrings(plantCodes, batchSize) {
		req := map[string]string{
			"stationCodes": strings.Join(batch, ","),
		}

		var entries []stationRealKpiEntry
		if err := c.session.call(ctx, "/thirdData/getStationRealKpi", req, &entries); err != nil {
			return nil, fmt.Errorf("fetching plant realtime data: %w", err)
		}

		for _, entry := range entries {
			result = append(result, PlantRealtime{
				PlantCode: entry.StationCode,
				KPIs:      entry.DataItemMap,
			})
		}
	}

	return result, nil
}

// devRealKpiEntry is one element of the /thirdData/getDevRealKpi response.
type devRealKpiEntry struct {
	DevID       int64          `json:"devId"`
	DataItemMap map[string]any `json:"dataItemMap"`
}

// DeviceRealtime retrieves the current KPI map for each given device.
//
// The API requires one request per device type, so devices are grouped by
// devTypeId and each group is batched. Device types are queried in
// ascending order to keep request sequences deterministic.
func (c *Client) DeviceRealtime(ctx context.Context, devices []Device) ([]DeviceRealtime, error) {
	byType := make(map[int][]int64)
	for _, d := range devices {
		byType[d.TypeID] = append(byType[d.TypeID], d.ID)
	}

	typeIDs := make([]int, 0, len(byType))
	for typeID := range byType {
		typeIDs = append(typeIDs, typeID)
	}
	sort.Ints(typeIDs)

	var result []DeviceRealtime
	for _, typeID := range typeIDs {
		for _, batch := range batchInt64s(byType[typeID], batchSize) {
			ids := make([]string, len(batch))
			for i, id := range batch {
				ids[i] = strconv.FormatInt(id, 10)
			}

			req := map[string]string{
				"devIds":    strings.Join(ids, ","),
				"devTypeId": strconv.Itoa(typeID),
			}

			var entries []devRealKpiEntry
			if err := c.session.call(ctx, "/thirdData/getDevRealKpi", req, &entries); err != nil {
				return nil, fmt.Errorf("fetching device realtime data (type %d): %w", typeID, err)
			}

			for _, entry := range entries {
				result = append(result, DeviceRealtime{
					DeviceID: entry.DevID,
					TypeID:   typeID,
					KPIs:     entry.DataItemMap,
				})
			}
		}
	}

	return result, nil
}

// batchStrings splits values into chunks of at most size elements.
func batchStrings(values []string, size int) [][]string {
	var batches [][]string
	for len(values) > size {
		batches = append(batches, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		batches = append(batches, values)
	}
	return batches
}

// batchInt64s splits values into chunks of at most size elements.
func batchInt64s(values []int64, size int) [][]int64 {
	var batches [][]int64
	for len(values) > size {
		batches = append(batches, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		batches = append(batches, values)
	}
	return batches
}
