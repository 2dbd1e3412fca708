package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/pkg/logger"
)

// Status thresholds and strength weights
const (
	highConfidenceScore = 0.7
	validatedScore      = 0.5
	minCoverage         = 0.5

	countWeight     = 0.4
	diversityWeight = 0.3
	temporalWeight  = 0.3
)

// Validator computes cross-source corroboration for resolved entities
// ⭐ SSOT: validation scoring lives here only
type Validator struct {
	categories []contracts.SourceCategory
	log        *logger.Logger
}

// New creates a validator over the configured category set
func New(log *logger.Logger) *Validator {
	return &Validator{
		categories: contracts.AllCategories,
		log:        log.WithComponent("validation"),
	}
}

// Compute derives coverage, strength and the validation gate for one
// resolved entity against one snapshot. The error return is soft: a
// *contracts.ValidationInsufficientDataError tags the result without
// invalidating it, and the entity is never dropped.
func (v *Validator) Compute(res contracts.EntityResolution, reg *registry.Registry, snap *contracts.SourceSnapshot) (contracts.ValidationResult, error) {
	out := contracts.ValidationResult{
		TierDistribution: make(map[int]int),
	}

	if !res.Resolved() {
		out.Status = contracts.ValidationUnvalidated
		out.FailReasons = append(out.FailReasons, "entity unresolved")
		return out, nil
	}
	entity, ok := reg.Get(res.PrimaryMatch.EntityID)
	if !ok {
		out.Status = contracts.ValidationUnvalidated
		out.FailReasons = append(out.FailReasons, "resolved entity not in registry version")
		return out, nil
	}
	out.EntityID = entity.ID

	// Coverage: usable categories vs configured. "Checked, found nothing"
	// is not the same as "nothing to check".
	usable := 0
	for _, cat := range v.categories {
		if snap.HasUsableData(cat) {
			usable++
			out.SourcesChecked = append(out.SourcesChecked, cat)
		} else if payloadEmpty(snap, cat) {
			out.SourcesNoData = append(out.SourcesNoData, cat)
		} else {
			out.SourcesMissing = append(out.SourcesMissing, cat)
		}
	}
	out.Coverage = float64(usable) / float64(len(v.categories))

	// Collect corroborating matches per category
	for _, cat := range v.categories {
		payload := snap.Category(cat)
		if payload == nil {
			continue
		}
		for _, item := range payload.Items {
			match, ok := matchItem(entity, reg, cat, item)
			if !ok {
				continue
			}
			out.Matches = append(out.Matches, match)
			out.TierDistribution[match.Tier]++
		}
	}

	sort.Slice(out.Matches, func(i, j int) bool {
		a, b := out.Matches[i], out.Matches[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Identifier < b.Identifier
	})

	out.Strength = v.strength(out.Matches)
	out.Score = out.Coverage * out.Strength
	out.Validated = gate(out.Matches)

	switch {
	case out.Coverage < minCoverage:
		out.Status = contracts.ValidationInsufficientData
		out.FailReasons = append(out.FailReasons,
			fmt.Sprintf("coverage %.2f below %.2f", out.Coverage, minCoverage))
		return out, &contracts.ValidationInsufficientDataError{EntityID: entity.ID, Coverage: out.Coverage}

	case out.Score >= highConfidenceScore:
		out.Status = contracts.ValidationHighConfidence

	case out.Score >= validatedScore || out.Validated:
		// the corroboration gate promotes low-score results that still
		// carry independent tier-1 evidence
		out.Status = contracts.ValidationValidated

	default:
		out.Status = contracts.ValidationUnvalidated
		if len(out.Matches) == 0 {
			out.FailReasons = append(out.FailReasons, "no corroborating sources")
		}
	}

	return out, nil
}

// strength combines source count, diversity and temporal alignment
func (v *Validator) strength(matches []contracts.SourceMatch) float64 {
	if len(matches) == 0 {
		return 0
	}

	hitCategories := make(map[contracts.SourceCategory]bool)
	for _, m := range matches {
		hitCategories[m.Category] = true
	}

	// Source count factor
	var countFactor float64
	switch n := len(hitCategories); {
	case n >= 4:
		countFactor = 1.0
	case n == 3:
		countFactor = 0.75
	case n == 2:
		countFactor = 0.5
	case n == 1:
		countFactor = 0.2
	}

	// Diversity: one point per distinct category, bonus for
	// technical+financial co-occurrence and predictive corroboration
	points := float64(len(hitCategories))
	if hitCategories[contracts.CategoryTechnical] && hitCategories[contracts.CategoryFinancial] {
		points += 0.15
	}
	if hitCategories[contracts.CategoryPredictive] && len(hitCategories) >= 2 {
		points += 0.1
	}
	maxPoints := float64(len(v.categories)) + 0.25
	diversity := points / maxPoints
	if diversity > 1 {
		diversity = 1
	}

	// Temporal alignment over the hit dates
	temporal := temporalAlignment(matches)

	return countWeight*countFactor + diversityWeight*diversity + temporalWeight*temporal
}

// temporalAlignment scores how tightly the corroborating observations
// cluster in time
func temporalAlignment(matches []contracts.SourceMatch) float64 {
	if len(matches) < 2 {
		return 0.0
	}

	min, max := matches[0].ObservedAt, matches[0].ObservedAt
	for _, m := range matches[1:] {
		if m.ObservedAt.Before(min) {
			min = m.ObservedAt
		}
		if m.ObservedAt.After(max) {
			max = m.ObservedAt
		}
	}

	span := max.Sub(min)
	switch {
	case span <= 7*24*time.Hour:
		return 1.0
	case span <= 14*24*time.Hour:
		return 0.7
	default:
		return 0.4
	}
}

// gate is the boolean "validated" check used downstream: two independent
// strong sources, or one tier-1 hit plus two context-qualified tier-3
// hits. Tier-3-only evidence never satisfies it.
func gate(matches []contracts.SourceMatch) bool {
	strong := make(map[string]bool)
	tier1 := 0
	qualifiedTier3 := 0

	for _, m := range matches {
		if m.Weight >= 0.6 {
			strong[string(m.Category)+"|"+m.Identifier] = true
		}
		if m.Tier == 1 {
			tier1++
		}
		if m.Tier == 3 && m.ContextQualified {
			qualifiedTier3++
		}
	}

	if len(strong) >= 2 {
		return true
	}
	return tier1 >= 1 && qualifiedTier3 >= 2
}

// matchItem checks a payload item against an entity's identity surface
func matchItem(e *contracts.CanonicalEntity, reg *registry.Registry, cat contracts.SourceCategory, item contracts.PayloadItem) (contracts.SourceMatch, bool) {
	ident := registry.Normalize(item.Identifier)
	if ident == "" {
		return contracts.SourceMatch{}, false
	}

	names := append([]string{e.CanonicalName}, e.Aliases...)
	assets := assetValues(e)
	context := itemContext(item)

	tier := 0

	// Exact name or alias
	for _, n := range names {
		if ident == registry.Normalize(n) {
			tier = 1
			break
		}
	}

	// Registered org/namespace prefix ("deepseek-ai/DeepSeek-V3")
	if tier == 0 {
		if idx := strings.IndexAny(ident, "/:"); idx > 0 {
			prefix := ident[:idx]
			for _, a := range assets {
				if prefix == a {
					tier = 1
					break
				}
			}
		}
	}

	// Identifier equals or contains a registered asset value
	if tier == 0 {
		for _, a := range assets {
			if ident == a {
				tier = 1
				break
			}
			if len(a) >= 3 && strings.Contains(ident, a) {
				tier = 2
				break
			}
		}
	}

	// Substring containment of the name itself
	qualified := true
	if tier == 0 {
		for _, n := range names {
			name := registry.Normalize(n)
			if len(name) < 3 {
				continue
			}
			if strings.Contains(ident, name) {
				tier = 3
				qualified = reg.Qualify(name, context)
				break
			}
		}
	}

	if tier == 0 {
		return contracts.SourceMatch{}, false
	}

	return contracts.SourceMatch{
		Category:         cat,
		Identifier:       item.Identifier,
		Tier:             tier,
		Weight:           registry.TierWeight(tier),
		ObservedAt:       item.ObservedAt,
		ContextQualified: qualified,
	}, true
}

func assetValues(e *contracts.CanonicalEntity) []string {
	var out []string
	// sorted asset types keep the match order deterministic
	types := make([]string, 0, len(e.LinkedAssets))
	for t := range e.LinkedAssets {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		for _, v := range e.LinkedAssets[t] {
			out = append(out, registry.Normalize(v))
		}
	}
	return out
}

// itemContext gathers the free-text fields of an item for ambiguity checks
func itemContext(item contracts.PayloadItem) []string {
	var out []string
	for _, key := range []string{"text", "title", "context", "description"} {
		if s, ok := item.Str(key); ok {
			out = append(out, s)
		}
	}
	return out
}

// payloadEmpty distinguishes a category that reported with zero items
// from one that never reported
func payloadEmpty(snap *contracts.SourceSnapshot, cat contracts.SourceCategory) bool {
	for _, h := range snap.Health {
		if h.Category == cat && h.Health == contracts.HealthNoData {
			return true
		}
	}
	return false
}
