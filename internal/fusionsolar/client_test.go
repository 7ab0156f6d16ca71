package fusionsolar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
)

// fakeAPI simulates the northbound endpoints used by the client.
type fakeAPI struct {
	mu          sync.Mutex
	logins      int
	token       string
	expireOnce  bool // next data call returns failCode 305
	rateLimited bool // data calls return failCode 407
	devTypeIDs  []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/thirdData/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		if req["userName"] != "nb_user" || req["systemCode"] != "nb_code" {
			writeEnvelope(w, 20400, "user or password invalid", nil)
			return
		}

		f.logins++
		f.token = "token-1"
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: f.token})
		writeEnvelope(w, 0, "", nil)
	})

	data := func(w http.ResponseWriter, r *http.Request, payload any) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Header.Get("XSRF-TOKEN") != f.token {
			writeEnvelope(w, 305, "USER_MUST_RELOGIN", nil)
			return
		}
		if f.expireOnce {
			f.expireOnce = false
			writeEnvelope(w, 305, "USER_MUST_RELOGIN", nil)
			return
		}
		if f.rateLimited {
			writeEnvelope(w, 407, "ACCESS_FREQUENCY_IS_TOO_HIGH", nil)
			return
		}
		writeEnvelope(w, 0, "", payload)
	}

	mux.HandleFunc("/thirdData/stations", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]int
		_ = json.NewDecoder(r.Body).Decode(&req)

		pages := map[int]stationsPage{
			1: {Total: 3, PageCount: 2, PageNo: 1, List: []Plant{
				{Code: "NE=1", Name: "Home"},
				{Code: "NE=2", Name: "Cabin"},
			}},
			2: {Total: 3, PageCount: 2, PageNo: 2, List: []Plant{
				{Code: "NE=3", Name: "Barn"},
			}},
		}
		data(w, r, pages[req["pageNo"]])
	})

	mux.HandleFunc("/thirdData/getDevList", func(w http.ResponseWriter, r *http.Request) {
		data(w, r, []Device{
			{ID: 11, Name: "Inverter", TypeID: DeviceTypeStringInverter, PlantCode: "NE=1"},
			{ID: 12, Name: "Meter", TypeID: DeviceTypePowerSensor, PlantCode: "NE=1"},
		})
	})

	mux.HandleFunc("/thirdData/getStationRealKpi", func(w http.ResponseWriter, r *http.Request) {
		data(w, r, []stationRealKpiEntry{
			{StationCode: "NE=1", DataItemMap: map[string]any{"day_power": 12.5}},
		})
	})

	mux.HandleFunc("/thirdData/getDevRealKpi", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.devTypeIDs = append(f.devTypeIDs, req["devTypeId"])
		f.mu.Unlock()

		data(w, r, []devRealKpiEntry{
			{DevID: 11, DataItemMap: map[string]any{"active_power": 3.2}},
		})
	})

	return mux
}

func writeEnvelope(w http.ResponseWriter, failCode int, message string, payload any) {
	env := map[string]any{
		"success":  failCode == 0,
		"failCode": failCode,
		"message":  message,
	}
	if payload != nil {
		env["data"] = payload
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func testClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(config.FusionSolarConfig{
		Username: "nb_user",
		Password: "nb_code",
		BaseURL:  srv.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestLogin(t *testing.T) {
	api := &fakeAPI{}
	client := testClient(t, api)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if api.logins != 1 {
		t.Errorf("logins = %d, want 1", api.logins)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(config.FusionSolarConfig{
		Username: "nb_user",
		Password: "wrong",
		BaseURL:  srv.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	err = client.Login(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("Login() error = %v, want ErrAuthentication", err)
	}
}

func TestPlantList_Pagination(t *testing.T) {
	api := &fakeAPI{}
	client := testClient(t, api)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	plants, err := client.PlantList(context.Background())
	if err != nil {
		t.Fatalf("PlantList() error = %v", err)
	}

	if len(plants) != 3 {
		t.Fatalf("PlantList() returned %d plants, want 3", len(plants))
	}
	if plants[2].Name != "Barn" {
		t.Errorf("plants[2].Name = %q, want %q", plants[2].Name, "Barn")
	}
}

func TestDeviceRealtime_GroupsByType(t *testing.T) {
	api := &fakeAPI{}
	client := testClient(t, api)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	devices := []Device{
		{ID: 11, TypeID: DeviceTypeStringInverter},
		{ID: 12, TypeID: DeviceTypePowerSensor},
		{ID: 13, TypeID: DeviceTypeStringInverter},
	}

	if _, err := client.DeviceRealtime(context.Background(), devices); err != nil {
		t.Fatalf("DeviceRealtime() error = %v", err)
	}

	// One request per device type, ordered by ascending devTypeId.
	want := []string{"1", "47"}
	if len(api.devTypeIDs) != len(want) {
		t.Fatalf("devTypeIds = %v, want %v", api.devTypeIDs, want)
	}
	for i := range want {
		if api.devTypeIDs[i] != want[i] {
			t.Errorf("devTypeIds[%d] = %q, want %q", i, api.devTypeIDs[i], want[i])
		}
	}
}

func TestCall_ReloginOnExpiredSession(t *testing.T) {
	api := &fakeAPI{}
	client := testClient(t, api)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	api.mu.Lock()
	api.expireOnce = true
	api.mu.Unlock()

	plants, err := client.PlantList(context.Background())
	if err != nil {
		t.Fatalf("PlantList() after expiry error = %v", err)
	}
	if len(plants) != 3 {
		t.Errorf("PlantList() returned %d plants, want 3", len(plants))
	}
	if api.logins != 2 {
		t.Errorf("logins = %d, want 2 (initial + re-login)", api.logins)
	}
}

func TestCall_RateLimited(t *testing.T) {
	api := &fakeAPI{}
	client := testClient(t, api)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	api.mu.Lock()
	api.rateLimited = true
	api.mu.Unlock()

	_, err := client.PlantRealtime(context.Background(), []string{"NE=1"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("PlantRealtime() error = %v, want ErrRateLimited", err)
	}
}

func TestCall_TransportError(t *testing.T) {
	client, err := NewClient(config.FusionSolarConfig{
		Username: "nb_user",
		Password: "nb_code",
		BaseURL:  "http://127.0.0.1:1", // nothing listens here
		Timeout:  1,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	err = client.Login(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Login() error = %v, want ErrTransport", err)
	}
}

func TestBatchStrings(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e"}
	batches := batchStrings(values, 2)

	if len(batches) != 3 {
		t.Fatalf("batchStrings() returned %d batches, want 3", len(batches))
	}
	if len(batches[2]) != 1 || batches[2][0] != "e" {
		t.Errorf("last batch = %v, want [e]", batches[2])
	}
}
