package telemetry

import (
	"sort"
)

// Values is one entity's metric map. Values are JSON scalars, except for
// the derived "power" block which nests one additional level.
type Values map[string]any

// Snapshot is the complete set of metric records from one polling cycle.
// Its JSON encoding is the payload published to MQTT and Kafka.
type Snapshot struct {
	Plants  map[string]Values `json:"plants"`
	Devices map[string]Values `json:"devices"`
}

// Record is one metric flattened to its topic path components.
// Metric may contain a slash when the source value was nested
// (e.g. "power/production").
type Record struct {
	Category string
	Entity   string
	Metric   string
	Value    any
}

// Path returns the deterministic topic path category/entity/metric.
func (r Record) Path() string {
	return r.Category + "/" + r.Entity + "/" + r.Metric
}

// Records flattens the snapshot into a list of records sorted by topic path.
func (s *Snapshot) Records() []Record {
	var records []Record
	records = appendCategory(records, "plants", s.Plants)
	records = appendCategory(records, "devices", s.Devices)

	sort.Slice(records, func(i, j int) bool {
		return records[i].Path() < records[j].Path()
	})

	return records
}

// Len returns the total number of metric records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Records())
}

func appendCategory(records []Record, category string, entities map[string]Values) []Record {
	for entity, values := range entities {
		records = appendValues(records, category, entity, "", values)
	}
	return records
}

// appendValues walks a value map, descending into nested maps by joining
// keys with "/" (mirrors the recursive list conversion of the list output).
func appendValues(records []Record, category, entity, prefix string, values Values) []Record {
	for key, value := range values {
		metric := key
		if prefix != "" {
			metric = prefix + "/" + key
		}
		// Nested maps arrive as Values when built locally and as
		// map[string]any after JSON decoding.
		switch nested := value.(type) {
		case Values:
			records = appendValues(records, category, entity, metric, nested)
			continue
		case map[string]any:
			records = appendValues(records, category, entity, metric, Values(nested))
			continue
		}
		records = append(records, Record{
			Category: category,
			Entity:   entity,
			Metric:   metric,
			Value:    value,
		})
	}
	return records
}
