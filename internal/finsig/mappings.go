package finsig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wonny/argus/internal/contracts"
)

// Token assignment roles. A secondary assignment contributes at half its
// registered confidence.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// TokenAssignment maps one token to a bucket with a confidence
type TokenAssignment struct {
	ID         string  `yaml:"id" json:"id"`
	Role       string  `yaml:"role" json:"role"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// BucketMapping declares the instruments behind one thematic bucket
type BucketMapping struct {
	ID      string            `yaml:"id" json:"id"`
	Tickers []string          `yaml:"tickers" json:"tickers"`
	Tokens  []TokenAssignment `yaml:"tokens" json:"tokens"`
}

// MacroSeriesSpec declares one macro indicator of the regime composite
type MacroSeriesSpec struct {
	SeriesID string  `yaml:"series_id" json:"series_id"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Invert   bool    `yaml:"invert" json:"invert"` // "bad when high" series
}

// Mappings is the versioned instrument mapping configuration
type Mappings struct {
	Buckets     []BucketMapping   `yaml:"buckets" json:"buckets"`
	MacroSeries []MacroSeriesSpec `yaml:"macro_series" json:"macro_series"`

	Version string `yaml:"-" json:"-"`
}

// LoadMappings reads and validates the mappings file. Malformed entries
// are fatal *contracts.ConfigError values.
func LoadMappings(path string) (*Mappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: err.Error()}
	}

	var m Mappings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}

	if err := m.validate(path); err != nil {
		return nil, err
	}

	sort.Slice(m.Buckets, func(i, j int) bool { return m.Buckets[i].ID < m.Buckets[j].ID })
	sort.Slice(m.MacroSeries, func(i, j int) bool { return m.MacroSeries[i].SeriesID < m.MacroSeries[j].SeriesID })

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: fmt.Sprintf("hash failed: %v", err)}
	}
	sum := sha256.Sum256(jsonBytes)
	m.Version = hex.EncodeToString(sum[:])

	return &m, nil
}

func (m *Mappings) validate(path string) error {
	if len(m.Buckets) == 0 {
		return &contracts.ConfigError{File: path, Field: "buckets", Reason: "at least one bucket is required"}
	}

	seen := make(map[string]bool)
	for _, b := range m.Buckets {
		if b.ID == "" {
			return &contracts.ConfigError{File: path, Field: "buckets.id", Reason: "bucket id is required"}
		}
		if seen[b.ID] {
			return &contracts.ConfigError{File: path, Field: "buckets." + b.ID, Reason: "duplicate bucket id"}
		}
		seen[b.ID] = true

		for _, t := range b.Tokens {
			if t.ID == "" {
				return &contracts.ConfigError{File: path, Field: "buckets." + b.ID + ".tokens", Reason: "token id is required"}
			}
			if t.Role != RolePrimary && t.Role != RoleSecondary {
				return &contracts.ConfigError{File: path, Field: "buckets." + b.ID + ".tokens." + t.ID, Reason: fmt.Sprintf("role must be %s or %s", RolePrimary, RoleSecondary)}
			}
			if t.Confidence <= 0 || t.Confidence > 1 {
				return &contracts.ConfigError{File: path, Field: "buckets." + b.ID + ".tokens." + t.ID, Reason: "confidence must be in (0,1]"}
			}
		}
	}

	for _, s := range m.MacroSeries {
		if s.SeriesID == "" {
			return &contracts.ConfigError{File: path, Field: "macro_series.series_id", Reason: "series id is required"}
		}
		if s.Weight <= 0 {
			return &contracts.ConfigError{File: path, Field: "macro_series." + s.SeriesID, Reason: "weight must be positive"}
		}
	}

	return nil
}

// EquitySymbols returns the sorted unique ticker universe
func (m *Mappings) EquitySymbols() []string {
	set := make(map[string]bool)
	for _, b := range m.Buckets {
		for _, t := range b.Tickers {
			set[t] = true
		}
	}
	return sortedKeys(set)
}

// TokenIDs returns the sorted unique token universe
func (m *Mappings) TokenIDs() []string {
	set := make(map[string]bool)
	for _, b := range m.Buckets {
		for _, t := range b.Tokens {
			set[t.ID] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
