package registry

import (
	"net/url"
	"sort"
	"strings"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/pkg/logger"
)

// Tier base confidences and the resolution floor
const (
	tier1Confidence = 1.0
	tier2Base       = 0.6
	tier2Cap        = 0.9
	tier3Confidence = 0.2
	resolutionFloor = 0.2
)

// TierWeight converts a match tier to the weight used by the validator's
// corroboration gate
func TierWeight(tier int) float64 {
	switch tier {
	case 1:
		return 1.0
	case 2:
		return 0.6
	default:
		return 0.3
	}
}

// categoryWeights scales tier-2 coherence boosts by source category.
// An unrecognized category falls back to the generic weight, never fails.
var categoryWeights = map[contracts.SourceCategory]float64{
	contracts.CategoryTechnical:  1.0,
	contracts.CategoryFinancial:  0.9,
	contracts.CategorySocial:     0.8,
	contracts.CategoryPredictive: 0.7,
}

const genericCategoryWeight = 0.8

// coherenceRule is one (predicate, confidence delta) entry of the ordered
// tier-2 boost table. Each firing lands in the candidate's trace.
type coherenceRule struct {
	name    string
	delta   float64
	applies func(e *contracts.CanonicalEntity, reg *Registry, prefix, remainder string, context []string) bool
}

var tier2Rules = []coherenceRule{
	{
		name:  "website_crosslink",
		delta: 0.10,
		applies: func(e *contracts.CanonicalEntity, _ *Registry, _, remainder string, context []string) bool {
			token := websiteToken(e.Website)
			if token == "" {
				return false
			}
			return strings.Contains(remainder, token) || contextContains(context, token)
		},
	},
	{
		name:  "name_mention",
		delta: 0.10,
		applies: func(e *contracts.CanonicalEntity, _ *Registry, _, remainder string, context []string) bool {
			name := Normalize(e.CanonicalName)
			return strings.Contains(remainder, name) || contextContains(context, name)
		},
	},
	{
		name:  "namespace_shared",
		delta: 0.10,
		applies: func(_ *contracts.CanonicalEntity, reg *Registry, prefix, _ string, _ []string) bool {
			types := make(map[string]bool)
			for _, ref := range reg.byAsset[prefix] {
				types[ref.assetType] = true
			}
			return len(types) >= 2
		},
	},
	{
		name:  "product_mention",
		delta: 0.08,
		applies: func(e *contracts.CanonicalEntity, _ *Registry, _, _ string, context []string) bool {
			for _, alias := range e.Aliases {
				if contextContains(context, Normalize(alias)) {
					return true
				}
			}
			return false
		},
	},
}

// Matcher resolves raw name strings against the current registry version.
// Resolution is a pure function of (raw name, registry version, context),
// which backtests rely on.
type Matcher struct {
	handle *Handle
	log    *logger.Logger
}

// NewMatcher creates a matcher bound to a registry handle
func NewMatcher(handle *Handle, log *logger.Logger) *Matcher {
	return &Matcher{
		handle: handle,
		log:    log.WithComponent("registry.matcher"),
	}
}

// Resolve resolves a raw mention into a canonical entity with confidence,
// tier and an auditable rule trace per candidate.
func (m *Matcher) Resolve(rawName string, category contracts.SourceCategory, context []string) contracts.EntityResolution {
	reg := m.handle.Current()
	return ResolveAgainst(reg, rawName, category, context)
}

// ResolveAgainst runs the tiered matching pipeline against a pinned
// registry version. Exposed so backtests can pin one version for a whole
// replay.
func ResolveAgainst(reg *Registry, rawName string, category contracts.SourceCategory, context []string) contracts.EntityResolution {
	res := contracts.EntityResolution{
		RawName:         rawName,
		SourceCategory:  category,
		RegistryVersion: reg.Version,
		Path:            contracts.PathUnresolved,
	}

	norm := Normalize(rawName)
	if norm == "" {
		return res
	}

	catWeight, ok := categoryWeights[category]
	if !ok {
		catWeight = genericCategoryWeight
	}

	byEntity := make(map[string]contracts.MatchCandidate)

	// Tier 1: exact name or alias lookup
	if e, ok := reg.byExact[norm]; ok {
		byEntity[e.ID] = contracts.MatchCandidate{
			EntityID:   e.ID,
			Name:       e.CanonicalName,
			Type:       e.Type,
			Tier:       1,
			Confidence: tier1Confidence,
			Trace:      []contracts.RuleFiring{{Rule: "exact_match", Delta: tier1Confidence}},
		}
	}

	// Tier 2: org/namespace prefix against registered linked assets
	if prefix, remainder, ok := splitNamespace(norm); ok {
		for _, ref := range reg.byAsset[prefix] {
			e := ref.entity
			if existing, dup := byEntity[e.ID]; dup && existing.Tier <= 2 {
				continue
			}

			cand := contracts.MatchCandidate{
				EntityID:   e.ID,
				Name:       e.CanonicalName,
				Type:       e.Type,
				Tier:       2,
				Confidence: tier2Base,
				Trace:      []contracts.RuleFiring{{Rule: "namespace_prefix:" + ref.assetType, Delta: tier2Base}},
			}

			for _, rule := range tier2Rules {
				if !rule.applies(e, reg, prefix, remainder, context) {
					continue
				}
				boost := rule.delta * catWeight
				if cand.Confidence+boost > tier2Cap {
					boost = tier2Cap - cand.Confidence
				}
				if boost <= 0 {
					continue
				}
				cand.Confidence += boost
				cand.Trace = append(cand.Trace, contracts.RuleFiring{Rule: rule.name, Delta: boost})
			}

			byEntity[e.ID] = cand
		}
	}

	// Tier 3: substring containment, guarded by the ambiguity table
	for i := range reg.entities {
		e := &reg.entities[i]
		if _, dup := byEntity[e.ID]; dup {
			continue
		}

		term, ok := containmentTerm(norm, e)
		if !ok {
			continue
		}

		if rule, guarded := reg.ambiguity[term]; guarded {
			if rejected, flag := applyAmbiguityRule(rule, norm, context); rejected {
				ambErr := &contracts.AmbiguousEntityError{RawName: rawName, Term: rule.Term}
				res.AmbiguityFlags = append(res.AmbiguityFlags, ambErr.Error()+" ("+flag+")")
				continue
			}
		}

		byEntity[e.ID] = contracts.MatchCandidate{
			EntityID:   e.ID,
			Name:       e.CanonicalName,
			Type:       e.Type,
			Tier:       3,
			Confidence: tier3Confidence,
			Trace:      []contracts.RuleFiring{{Rule: "substring:" + term, Delta: tier3Confidence}},
		}
	}

	for _, cand := range byEntity {
		res.Candidates = append(res.Candidates, cand)
	}
	// Deterministic ranking: confidence desc, entity id asc on ties
	sort.Slice(res.Candidates, func(i, j int) bool {
		if res.Candidates[i].Confidence != res.Candidates[j].Confidence {
			return res.Candidates[i].Confidence > res.Candidates[j].Confidence
		}
		return res.Candidates[i].EntityID < res.Candidates[j].EntityID
	})

	if len(res.Candidates) == 0 || res.Candidates[0].Confidence < resolutionFloor {
		return res
	}

	primary := res.Candidates[0]
	res.PrimaryMatch = &primary
	res.PrimaryType = primary.Type
	res.Confidence = primary.Confidence
	switch primary.Tier {
	case 1:
		res.Path = contracts.PathTier1
	case 2:
		res.Path = contracts.PathTier2
	default:
		res.Path = contracts.PathTier3
	}

	return res
}

// Qualify reports whether a term is safe to use as tier-3 evidence given
// the surrounding context. Terms without an ambiguity rule are always
// qualified.
func (r *Registry) Qualify(term string, context []string) bool {
	rule, ok := r.ambiguity[Normalize(term)]
	if !ok {
		return true
	}
	rejected, _ := applyAmbiguityRule(rule, Normalize(term), context)
	return !rejected
}

// applyAmbiguityRule checks a denylisted term against its required
// context. Returns (rejected, flag).
func applyAmbiguityRule(rule AmbiguityRule, norm string, context []string) (bool, string) {
	for _, pattern := range rule.DenyPatterns {
		p := Normalize(pattern)
		if p == "" {
			continue
		}
		if strings.Contains(norm, p) || contextContains(context, p) {
			return true, "deny_pattern:" + pattern
		}
	}

	if len(rule.ContextKeywords) == 0 {
		return false, ""
	}
	for _, kw := range rule.ContextKeywords {
		k := Normalize(kw)
		if strings.Contains(norm, k) || contextContains(context, k) {
			return false, ""
		}
	}
	return true, "missing_context:" + rule.Term
}

// containmentTerm reports whether the mention and an entity name contain
// one another, and returns the normalized matched term
func containmentTerm(norm string, e *contracts.CanonicalEntity) (string, bool) {
	names := append([]string{e.CanonicalName}, e.Aliases...)
	for _, n := range names {
		name := Normalize(n)
		if len(name) < 3 || len(norm) < 3 {
			continue
		}
		if strings.Contains(norm, name) {
			return name, true
		}
		if strings.Contains(name, norm) {
			return norm, true
		}
	}
	return "", false
}

// splitNamespace splits "org/name" style identifiers
func splitNamespace(norm string) (prefix, remainder string, ok bool) {
	idx := strings.IndexAny(norm, "/:")
	if idx <= 0 || idx == len(norm)-1 {
		return "", "", false
	}
	return norm[:idx], norm[idx+1:], true
}

// websiteToken extracts the matchable host token of an entity website
func websiteToken(website string) string {
	if website == "" {
		return ""
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		host = website
	}
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, "."); idx > 0 {
		host = host[:idx]
	}
	return Normalize(host)
}

func contextContains(context []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, c := range context {
		if strings.Contains(Normalize(c), needle) {
			return true
		}
	}
	return false
}
