package conviction

import (
	"fmt"
	"sort"

	"github.com/wonny/argus/internal/contracts"
)

// IncidentKind labels a brand safety event
type IncidentKind string

const (
	IncidentBreach     IncidentKind = "security_breach"
	IncidentLawsuit    IncidentKind = "lawsuit"
	IncidentLayoffs    IncidentKind = "layoffs"
	IncidentController IncidentKind = "founder_controversy"
)

// brand safety deduction per incident kind at severity 1.0
var incidentDeductions = map[IncidentKind]float64{
	IncidentBreach:     30,
	IncidentLawsuit:    20,
	IncidentLayoffs:    15,
	IncidentController: 15,
}

// Incident is one brand safety event observed for the entity
type Incident struct {
	Kind     IncidentKind
	Severity float64 // 0-1
	Detail   string
}

// RiskInputs carries the commercial-side and safety-side evidence. A nil
// pointer means the field was absent from every source, which is itself
// a signal interpreted per classification.
type RiskInputs struct {
	EntityType contracts.EntityType

	HasPublicRepo       bool
	DaysSinceLastCommit *int

	PricingModel        *string // "self_serve" | "sales_only"
	HasSelfServeAccess  bool
	EnterpriseCustomers *int
	MonthsSinceFunding  *int

	Incidents []Incident
}

// Pricing model values recognized by the risk stage
const (
	PricingSelfServe = "self_serve"
	PricingSalesOnly = "sales_only"
)

// RiskAssessment is the bear-case output of the second stage
type RiskAssessment struct {
	EntityClass             contracts.EntityClass
	CommercialMaturityScore float64 // 0-100
	BrandSafetyScore        float64 // 0-100, floor 0
	BearThesis              []string
	RedFlags                []contracts.RedFlag
	MissingCriticalSignals  []string
}

// staleness thresholds in days before development is considered dormant
const (
	saasStaleDays = 90
	ossStaleDays  = 180
)

// AssessRisk is a pure function from commercial evidence to the bear
// case. Classification comes first because it sets the grading curve for
// everything after it: the same absent field can be severe for a SaaS
// vendor and immaterial for an OSS project.
func AssessRisk(in RiskInputs) RiskAssessment {
	out := RiskAssessment{EntityClass: classify(in)}

	maturity := 50.0
	addFlag := func(label string, severity, deduction float64) {
		out.RedFlags = append(out.RedFlags, contracts.RedFlag{Label: label, Severity: severity})
		out.BearThesis = append(out.BearThesis, label)
		maturity -= deduction
	}

	// vaporware risk: dormant development with nothing usable to show
	staleDays := ossStaleDays
	if out.EntityClass == contracts.ClassCommercialSaaS {
		staleDays = saasStaleDays
	}
	switch {
	case in.DaysSinceLastCommit == nil && !in.HasSelfServeAccess:
		addFlag("no observable development activity and no self-serve access", 0.7, 20)
	case in.DaysSinceLastCommit != nil && *in.DaysSinceLastCommit > staleDays && !in.HasSelfServeAccess:
		addFlag(fmt.Sprintf("development dormant for %d days with no self-serve access", *in.DaysSinceLastCommit), 0.8, 25)
	case in.DaysSinceLastCommit != nil && *in.DaysSinceLastCommit > staleDays:
		addFlag(fmt.Sprintf("development dormant for %d days", *in.DaysSinceLastCommit), 0.5, 10)
	}

	// sustainability risk: funding runway vs commercial traction
	if in.MonthsSinceFunding != nil && *in.MonthsSinceFunding > 24 && !hasCommercialTraction(in) {
		addFlag(fmt.Sprintf("%d months since last funding with no commercial traction", *in.MonthsSinceFunding), 0.7, 20)
	}

	// positive commercial evidence
	if in.PricingModel != nil && *in.PricingModel == PricingSelfServe {
		maturity += 20
	}
	if in.EnterpriseCustomers != nil && *in.EnterpriseCustomers > 0 {
		maturity += 15
	}
	if in.MonthsSinceFunding != nil && *in.MonthsSinceFunding <= 18 {
		maturity += 10
	}

	// silence-as-signal and sales-only apply on the SaaS curve only
	if out.EntityClass == contracts.ClassCommercialSaaS {
		if in.PricingModel == nil {
			out.MissingCriticalSignals = append(out.MissingCriticalSignals, "pricing_model")
			addFlag("no public pricing for a commercial vendor", 0.6, 20)
		} else if *in.PricingModel == PricingSalesOnly {
			addFlag("sales-only pricing limits self-serve adoption", 0.4, 10)
		}
		if in.EnterpriseCustomers == nil {
			out.MissingCriticalSignals = append(out.MissingCriticalSignals, "enterprise_customers")
		}
	} else {
		if !in.HasPublicRepo {
			out.MissingCriticalSignals = append(out.MissingCriticalSignals, "public_repository")
			addFlag("claims open source but exposes no public repository", 0.8, 25)
		}
		if in.DaysSinceLastCommit == nil {
			out.MissingCriticalSignals = append(out.MissingCriticalSignals, "commit_activity")
		}
	}

	out.CommercialMaturityScore = clipScore(maturity, 100)

	// brand safety: start clean, deduct per incident, floor at zero
	brand := 100.0
	for _, incident := range in.Incidents {
		deduction := incidentDeductions[incident.Kind] * clipScore(incident.Severity, 1)
		brand -= deduction
		label := string(incident.Kind)
		if incident.Detail != "" {
			label = fmt.Sprintf("%s: %s", incident.Kind, incident.Detail)
		}
		out.RedFlags = append(out.RedFlags, contracts.RedFlag{Label: label, Severity: incident.Severity})
		out.BearThesis = append(out.BearThesis, label)
	}
	out.BrandSafetyScore = clipScore(brand, 100)

	// red flags are ranked worst first; ties break on label for stable output
	sort.SliceStable(out.RedFlags, func(i, j int) bool {
		if out.RedFlags[i].Severity != out.RedFlags[j].Severity {
			return out.RedFlags[i].Severity > out.RedFlags[j].Severity
		}
		return out.RedFlags[i].Label < out.RedFlags[j].Label
	})

	return out
}

// classify decides the grading curve. Registry-declared companies are
// always SaaS; otherwise any commercial marker flips an entity off the
// OSS curve.
func classify(in RiskInputs) contracts.EntityClass {
	if in.EntityType == contracts.EntityCompany {
		return contracts.ClassCommercialSaaS
	}
	if in.PricingModel != nil || (in.EnterpriseCustomers != nil && *in.EnterpriseCustomers > 0) {
		return contracts.ClassCommercialSaaS
	}
	return contracts.ClassOSSProject
}

func hasCommercialTraction(in RiskInputs) bool {
	if in.PricingModel != nil && *in.PricingModel == PricingSelfServe {
		return true
	}
	return in.EnterpriseCustomers != nil && *in.EnterpriseCustomers > 0
}
