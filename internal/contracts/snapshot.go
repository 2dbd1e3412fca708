package contracts

import "time"

// DataHealth reflects whether a source delivered usable output for a snapshot
type DataHealth string

const (
	HealthAvailable DataHealth = "available"
	HealthMissing   DataHealth = "missing"
	HealthStale     DataHealth = "stale"
	HealthNoData    DataHealth = "no_data"
)

// PayloadItem is a single record inside a category payload. Upstream
// sources emit loosely shaped documents, so fields are kept as a map with
// explicit presence checks instead of a fixed struct.
type PayloadItem struct {
	Source     string         `json:"source"`
	Identifier string         `json:"identifier"`
	ObservedAt time.Time      `json:"observed_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Str returns a string field and whether it was present
func (p PayloadItem) Str(key string) (string, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Num returns a numeric field and whether it was present. JSON decoding
// yields float64 for all numbers; ints inserted directly are accepted too.
func (p PayloadItem) Num(key string) (float64, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns a boolean field and whether it was present
func (p PayloadItem) Bool(key string) (bool, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// CategoryPayload is the tagged per-category bucket of a snapshot
type CategoryPayload struct {
	Category      SourceCategory `json:"category"`
	SchemaVersion string         `json:"schema_version"`
	Items         []PayloadItem  `json:"items"`
}

// SourceHealth describes one configured source's state inside a snapshot
type SourceHealth struct {
	Source     string         `json:"source"`
	Category   SourceCategory `json:"category"`
	Health     DataHealth     `json:"health"`
	ProducedAt time.Time      `json:"produced_at,omitempty"`
	Note       string         `json:"note,omitempty"`
}

// SourceSnapshot is the immutable, date-keyed consolidated view of all
// external source outputs. One per date; rebuilds are idempotent.
type SourceSnapshot struct {
	Date       time.Time                           `json:"date"`
	Categories map[SourceCategory]*CategoryPayload `json:"categories"`
	Health     []SourceHealth                      `json:"health"`
	Checksum   string                              `json:"checksum"`
	BuiltAt    time.Time                           `json:"built_at"`
}

// Category returns the payload for a category, which may be nil
func (s *SourceSnapshot) Category(c SourceCategory) *CategoryPayload {
	return s.Categories[c]
}

// HasUsableData reports whether a category holds at least one item
func (s *SourceSnapshot) HasUsableData(c SourceCategory) bool {
	p := s.Categories[c]
	return p != nil && len(p.Items) > 0
}

// RawSourceOutput is what one external source handed the snapshot builder.
// Source implementations themselves live outside this system.
type RawSourceOutput struct {
	Source        string         `json:"source"`
	Category      SourceCategory `json:"category"`
	SchemaVersion string         `json:"schema_version"`
	ProducedAt    time.Time      `json:"produced_at"`
	Items         []PayloadItem  `json:"items"`
}
