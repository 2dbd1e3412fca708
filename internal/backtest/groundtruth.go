package backtest

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wonny/argus/internal/contracts"
)

// GroundTruthFile is the on-disk shape of the curated breakout registry
type GroundTruthFile struct {
	Events []contracts.GroundTruthEvent `yaml:"events" json:"events"`
}

// LoadGroundTruth reads and validates the breakout registry. The file is
// append-only by convention; the loader enforces internal consistency,
// not history. Any malformed entry is a fatal *contracts.ConfigError.
func LoadGroundTruth(path string) ([]contracts.GroundTruthEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: err.Error()}
	}

	var file GroundTruthFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}

	seen := make(map[string]bool)
	for _, event := range file.Events {
		if event.EntityID == "" {
			return nil, &contracts.ConfigError{File: path, Field: "events.entity_id", Reason: "entity id is required"}
		}
		if event.BreakoutDate.IsZero() {
			return nil, &contracts.ConfigError{File: path, Field: "events." + event.EntityID, Reason: "breakout date is required"}
		}
		if !event.EarlySignalDate.IsZero() && event.EarlySignalDate.After(event.BreakoutDate) {
			return nil, &contracts.ConfigError{File: path, Field: "events." + event.EntityID, Reason: "early signal date is after breakout date"}
		}
		key := event.EntityID + "|" + event.BreakoutDate.Format("2006-01-02")
		if seen[key] {
			return nil, &contracts.ConfigError{File: path, Field: "events." + event.EntityID, Reason: "duplicate breakout event"}
		}
		seen[key] = true
	}

	events := file.Events
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].BreakoutDate.Equal(events[j].BreakoutDate) {
			return events[i].BreakoutDate.Before(events[j].BreakoutDate)
		}
		return events[i].EntityID < events[j].EntityID
	})

	return events, nil
}
