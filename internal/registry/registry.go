package registry

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/wonny/argus/internal/contracts"
)

// AmbiguityRule guards a generic term against false tier-3 matches. A
// denylisted term only survives when one of its context keywords appears
// nearby; a deny pattern in the context rejects it outright.
type AmbiguityRule struct {
	Term            string   `yaml:"term" json:"term"`
	ContextKeywords []string `yaml:"context_keywords" json:"context_keywords"`
	DenyPatterns    []string `yaml:"deny_patterns" json:"deny_patterns"`
}

// File is the on-disk shape of the entity registry
type File struct {
	Entities       []contracts.CanonicalEntity `yaml:"entities" json:"entities"`
	AmbiguityRules []AmbiguityRule             `yaml:"ambiguity_rules" json:"ambiguity_rules"`
}

// assetRef ties a linked asset value back to its entity and asset type
type assetRef struct {
	entity    *contracts.CanonicalEntity
	assetType string
}

// Registry is an immutable, versioned view of the entity registry.
// Readers share one instance; updates build a new Registry and swap it
// atomically so in-flight resolutions never observe a partial update.
type Registry struct {
	Version    string
	Generation uint64

	entities  []contracts.CanonicalEntity // sorted by ID
	byExact   map[string]*contracts.CanonicalEntity
	byAsset   map[string][]assetRef
	ambiguity map[string]AmbiguityRule
}

// Load reads and validates a registry file. Any malformed entry is a
// fatal *contracts.ConfigError.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: err.Error()}
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // unknown fields fail immediately
	if err := dec.Decode(&file); err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}

	return build(path, &file)
}

// build validates entries and constructs the lookup indexes
func build(path string, file *File) (*Registry, error) {
	reg := &Registry{
		byExact:   make(map[string]*contracts.CanonicalEntity),
		byAsset:   make(map[string][]assetRef),
		ambiguity: make(map[string]AmbiguityRule),
	}

	seen := make(map[string]bool)
	for _, e := range file.Entities {
		if e.ID == "" {
			return nil, &contracts.ConfigError{File: path, Field: "entities.id", Reason: "entity id is required"}
		}
		if e.CanonicalName == "" {
			return nil, &contracts.ConfigError{File: path, Field: "entities." + e.ID, Reason: "canonical name is required"}
		}
		if !validEntityType(e.Type) {
			return nil, &contracts.ConfigError{File: path, Field: "entities." + e.ID, Reason: fmt.Sprintf("unknown entity type %q", e.Type)}
		}
		if seen[e.ID] {
			return nil, &contracts.ConfigError{File: path, Field: "entities." + e.ID, Reason: "duplicate entity id"}
		}
		seen[e.ID] = true
		reg.entities = append(reg.entities, e)
	}

	sort.Slice(reg.entities, func(i, j int) bool { return reg.entities[i].ID < reg.entities[j].ID })

	for i := range reg.entities {
		e := &reg.entities[i]
		reg.byExact[Normalize(e.CanonicalName)] = e
		for _, alias := range e.Aliases {
			reg.byExact[Normalize(alias)] = e
		}
		for assetType, values := range e.LinkedAssets {
			for _, v := range values {
				key := Normalize(v)
				reg.byAsset[key] = append(reg.byAsset[key], assetRef{entity: e, assetType: assetType})
			}
		}
	}

	for _, r := range file.AmbiguityRules {
		if r.Term == "" {
			return nil, &contracts.ConfigError{File: path, Field: "ambiguity_rules.term", Reason: "term is required"}
		}
		reg.ambiguity[Normalize(r.Term)] = r
	}

	version, err := hashFile(file)
	if err != nil {
		return nil, &contracts.ConfigError{File: path, Reason: fmt.Sprintf("hash failed: %v", err)}
	}
	reg.Version = version

	return reg, nil
}

// hashFile produces a deterministic version hash from the registry
// content. Structs marshal with a fixed field order, so identical content
// always yields the identical version.
func hashFile(file *File) (string, error) {
	sortable := *file
	sort.Slice(sortable.Entities, func(i, j int) bool { return sortable.Entities[i].ID < sortable.Entities[j].ID })
	sort.Slice(sortable.AmbiguityRules, func(i, j int) bool { return sortable.AmbiguityRules[i].Term < sortable.AmbiguityRules[j].Term })

	jsonBytes, err := json.Marshal(sortable)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Entities returns all registered entities, sorted by ID
func (r *Registry) Entities() []contracts.CanonicalEntity {
	return r.entities
}

// Get returns the entity for an id
func (r *Registry) Get(id string) (*contracts.CanonicalEntity, bool) {
	for i := range r.entities {
		if r.entities[i].ID == id {
			return &r.entities[i], true
		}
	}
	return nil, false
}

// AmbiguityRuleFor returns the rule for a term, if any
func (r *Registry) AmbiguityRuleFor(term string) (AmbiguityRule, bool) {
	rule, ok := r.ambiguity[Normalize(term)]
	return rule, ok
}

// Normalize lowercases and trims a raw mention for matching
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEntityType(t contracts.EntityType) bool {
	for _, v := range contracts.ValidEntityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Handle is the shared access point to the current registry version.
// Swap is atomic; readers pin a version with Current() for the duration
// of a resolution.
type Handle struct {
	current    atomic.Pointer[Registry]
	generation atomic.Uint64
}

// NewHandle creates a handle around an initial registry
func NewHandle(reg *Registry) *Handle {
	h := &Handle{}
	h.Swap(reg)
	return h
}

// Current returns the registry version in effect right now
func (h *Handle) Current() *Registry {
	return h.current.Load()
}

// Swap installs a new registry version and bumps the generation counter
func (h *Handle) Swap(reg *Registry) {
	reg.Generation = h.generation.Add(1)
	h.current.Store(reg)
}
