package telemetry

import (
	"fmt"
	"strings"
)

// FormatList renders the snapshot as the --list output: one line per metric
// under the topic root, sorted by topic path, with the value column aligned.
//
// Example:
//
//	fusionsolar:
//	  devices/Home.Inverter/active_power : 3.2
//	  plants/Home/day_power              : 12.5
func FormatList(root string, s *Snapshot) string {
	records := s.Records()

	width := 0
	for _, r := range records {
		if len(r.Path()) > width {
			width = len(r.Path())
		}
	}

	var b strings.Builder
	b.WriteString(root)
	b.WriteString(":\n")
	for _, r := range records {
		fmt.Fprintf(&b, "  %-*s : %v\n", width, r.Path(), r.Value)
	}

	return b.String()
}
