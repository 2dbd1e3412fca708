package conviction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/argus/internal/contracts"
	"github.com/wonny/argus/internal/registry"
	"github.com/wonny/argus/internal/snapshot"
	"github.com/wonny/argus/pkg/logger"
)

// Repository persists assessments. Append-only by contract: a second
// analysis for the same (entity, date) becomes a new row.
type Repository interface {
	Append(ctx context.Context, assessment contracts.ConvictionAssessment) error
	History(ctx context.Context, entityID string, limit int) ([]contracts.ConvictionAssessment, error)
}

// Engine chains the three pure stages over snapshot evidence for one
// entity. All I/O happens before the stages run; the stages themselves
// are deterministic over extracted inputs.
type Engine struct {
	registry  *registry.Handle
	snapshots *snapshot.Service
	repo      Repository
	log       *logger.Logger
}

// NewEngine wires the conviction engine
func NewEngine(handle *registry.Handle, snapshots *snapshot.Service, repo Repository, log *logger.Logger) *Engine {
	return &Engine{
		registry:  handle,
		snapshots: snapshots,
		repo:      repo,
		log:       log.WithComponent("conviction.engine"),
	}
}

// Score assesses one entity as of a date, using only snapshot data
// visible at that date, and appends the result
func (e *Engine) Score(ctx context.Context, entityID string, asOf time.Time) (*contracts.ConvictionAssessment, error) {
	reg := e.registry.Current()
	entity, ok := reg.Get(entityID)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entityID)
	}

	snap, err := e.snapshots.GetSnapshot(ctx, asOf)
	if err != nil {
		return nil, err
	}

	growthIn, riskIn := ExtractInputs(reg, entity, snap)
	assessment := Arbitrate(entityID, asOf, AssessGrowth(growthIn), AssessRisk(riskIn))

	if e.repo != nil {
		if err := e.repo.Append(ctx, assessment); err != nil {
			return nil, fmt.Errorf("persisting assessment for %s: %w", entityID, err)
		}
	}

	e.log.WithFields(map[string]interface{}{
		"entity_id":      entityID,
		"as_of":          asOf.Format("2006-01-02"),
		"conviction":     assessment.ConvictionScore,
		"recommendation": assessment.Recommendation,
	}).Info("conviction assessment completed")

	return &assessment, nil
}

// ExtractInputs folds every snapshot item attributable to the entity
// into the two stage input sets. Attribution reuses the tiered matcher
// so conviction and validation agree on what belongs to whom.
func ExtractInputs(reg *registry.Registry, entity *contracts.CanonicalEntity, snap *contracts.SourceSnapshot) (GrowthInputs, RiskInputs) {
	var growth GrowthInputs
	risk := RiskInputs{EntityType: entity.Type}

	for _, category := range contracts.AllCategories {
		payload := snap.Category(category)
		if payload == nil {
			continue
		}
		for _, item := range payload.Items {
			resolution := registry.ResolveAgainst(reg, item.Identifier, category, contextOf(item))
			if !resolution.Resolved() || resolution.PrimaryMatch.EntityID != entity.ID {
				continue
			}
			foldGrowth(&growth, item)
			foldRisk(&risk, item)
		}
	}

	return growth, risk
}

func foldGrowth(in *GrowthInputs, item contracts.PayloadItem) {
	if v, ok := item.Num("stars"); ok {
		in.Stars += v
	}
	if v, ok := item.Num("forks"); ok {
		in.Forks += v
	}
	if v, ok := item.Num("stars_per_week"); ok {
		in.StarVelocity += v
	}
	if v, ok := item.Num("downloads"); ok {
		in.Downloads += v
	}
	if v, ok := item.Num("engagement"); ok {
		in.Engagement += v
	}
	if v, ok := item.Num("mentions"); ok {
		in.Mentions += v
	}
	if series, ok := numSeries(item, "weekly_stars"); ok && len(series) > len(in.WeeklyStars) {
		in.WeeklyStars = series
	}
}

func foldRisk(in *RiskInputs, item contracts.PayloadItem) {
	if v, ok := item.Num("days_since_last_commit"); ok {
		days := int(v)
		if in.DaysSinceLastCommit == nil || days < *in.DaysSinceLastCommit {
			in.DaysSinceLastCommit = &days
		}
		in.HasPublicRepo = true
	}
	if _, ok := item.Num("stars"); ok {
		in.HasPublicRepo = true
	}
	if v, ok := item.Str("pricing_model"); ok {
		model := v
		in.PricingModel = &model
		if model == PricingSelfServe {
			in.HasSelfServeAccess = true
		}
	}
	if v, ok := item.Bool("self_serve_access"); ok && v {
		in.HasSelfServeAccess = true
	}
	if v, ok := item.Num("enterprise_customers"); ok {
		count := int(v)
		in.EnterpriseCustomers = &count
	}
	if v, ok := item.Num("months_since_funding"); ok {
		months := int(v)
		if in.MonthsSinceFunding == nil || months < *in.MonthsSinceFunding {
			in.MonthsSinceFunding = &months
		}
	}
	if kind, ok := item.Str("incident_kind"); ok {
		incident := Incident{Kind: IncidentKind(kind), Severity: 1}
		if sev, ok := item.Num("incident_severity"); ok {
			incident.Severity = sev
		}
		if detail, ok := item.Str("incident_detail"); ok {
			incident.Detail = detail
		}
		in.Incidents = append(in.Incidents, incident)
	}
}

// numSeries reads a numeric array field, tolerating both native float
// slices and the []any a JSON decode produces
func numSeries(item contracts.PayloadItem, key string) ([]float64, bool) {
	raw, ok := item.Fields[key]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []float64:
		return v, true
	case []any:
		out := make([]float64, 0, len(v))
		for _, elem := range v {
			f, ok := elem.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}

// contextOf pulls free-text fields usable as disambiguation context
func contextOf(item contracts.PayloadItem) []string {
	var context []string
	for _, key := range []string{"text", "title", "context", "description"} {
		if v, ok := item.Str(key); ok && strings.TrimSpace(v) != "" {
			context = append(context, v)
		}
	}
	return context
}
