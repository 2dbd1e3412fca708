package contracts

// EntityType classifies a canonical entity
type EntityType string

const (
	EntityCompany EntityType = "company"
	EntityOrg     EntityType = "org"
	EntityModel   EntityType = "model"
	EntityRepo    EntityType = "repo"
	EntityPerson  EntityType = "person"
	EntityTopic   EntityType = "topic"
)

// ValidEntityTypes lists every accepted entity type
var ValidEntityTypes = []EntityType{
	EntityCompany, EntityOrg, EntityModel, EntityRepo, EntityPerson, EntityTopic,
}

// SourceCategory groups external sources by the kind of evidence they carry
type SourceCategory string

const (
	CategoryTechnical  SourceCategory = "technical"
	CategorySocial     SourceCategory = "social"
	CategoryFinancial  SourceCategory = "financial"
	CategoryPredictive SourceCategory = "predictive"
)

// AllCategories is the configured category set, in canonical order
var AllCategories = []SourceCategory{
	CategoryTechnical, CategorySocial, CategoryFinancial, CategoryPredictive,
}

// CanonicalEntity is the single deduplicated identity that raw mentions
// resolve to
// ⭐ SSOT: entity identity lives in the registry file, loaded into this shape
type CanonicalEntity struct {
	ID            string              `json:"id" yaml:"id"`
	CanonicalName string              `json:"canonical_name" yaml:"name"`
	Type          EntityType          `json:"type" yaml:"type"`
	Aliases       []string            `json:"aliases,omitempty" yaml:"aliases"`
	LinkedAssets  map[string][]string `json:"linked_assets,omitempty" yaml:"linked_assets"`
	Website       string              `json:"website,omitempty" yaml:"website"`
}

// ResolutionPath records which tier produced the primary match
type ResolutionPath string

const (
	PathRegistry   ResolutionPath = "registry"
	PathTier1      ResolutionPath = "tier1"
	PathTier2      ResolutionPath = "tier2"
	PathTier3      ResolutionPath = "tier3"
	PathUnresolved ResolutionPath = "unresolved"
)

// RuleFiring is one entry in the audit trail of the tiered matcher.
// Every confidence point a candidate holds is attributable to a rule.
type RuleFiring struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// MatchCandidate is one registry entity considered for a raw mention
type MatchCandidate struct {
	EntityID   string       `json:"entity_id"`
	Name       string       `json:"name"`
	Type       EntityType   `json:"type"`
	Tier       int          `json:"tier"`
	Confidence float64      `json:"confidence"`
	Trace      []RuleFiring `json:"trace,omitempty"`
}

// EntityResolution is the outcome of resolving one raw name string
type EntityResolution struct {
	RawName         string           `json:"raw_name"`
	SourceCategory  SourceCategory   `json:"source_category"`
	PrimaryMatch    *MatchCandidate  `json:"primary_match,omitempty"`
	PrimaryType     EntityType       `json:"primary_type,omitempty"`
	Candidates      []MatchCandidate `json:"candidates"`
	Confidence      float64          `json:"resolution_confidence"`
	AmbiguityFlags  []string         `json:"ambiguity_flags,omitempty"`
	Path            ResolutionPath   `json:"resolution_path"`
	RegistryVersion string           `json:"registry_version"`
}

// Resolved reports whether a primary match cleared the resolution floor
func (r *EntityResolution) Resolved() bool {
	return r.PrimaryMatch != nil && r.Path != PathUnresolved
}
