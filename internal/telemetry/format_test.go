package telemetry

import (
	"strings"
	"testing"
)

func TestFormatList(t *testing.T) {
	snap := &Snapshot{
		Plants: map[string]Values{
			"Home": {
				"day_power": 12.5,
				"power": Values{
					"production": 3750.0,
				},
			},
		},
		Devices: map[string]Values{
			"Home.Inverter": {
				"active_power": 3.2,
			},
		},
	}

	got := FormatList("fusionsolar", snap)

	want := strings.Join([]string{
		"fusionsolar:",
		"  devices/Home.Inverter/active_power : 3.2",
		"  plants/Home/day_power              : 12.5",
		"  plants/Home/power/production       : 3750",
		"",
	}, "\n")

	if got != want {
		t.Errorf("FormatList() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatList_Empty(t *testing.T) {
	snap := &Snapshot{
		Plants:  map[string]Values{},
		Devices: map[string]Values{},
	}

	if got := FormatList("fusionsolar", snap); got != "fusionsolar:\n" {
		t.Errorf("FormatList() = %q, want header only", got)
	}
}

func TestRecords_SortedAndUnique(t *testing.T) {
	snap := &Snapshot{
		Plants: map[string]Values{
			"B": {"z": 1.0, "a": 2.0},
			"A": {"m": 3.0},
		},
		Devices: map[string]Values{
			"B.dev": {"a": true, "b": "ok"},
		},
	}

	records := snap.Records()

	seen := make(map[string]bool)
	for i, r := range records {
		path := r.Path()
		if seen[path] {
			t.Errorf("duplicate path %q", path)
		}
		seen[path] = true

		if i > 0 && records[i-1].Path() > path {
			t.Errorf("records not sorted: %q before %q", records[i-1].Path(), path)
		}
	}

	if len(records) != 5 {
		t.Errorf("Records() returned %d records, want 5", len(records))
	}
}
