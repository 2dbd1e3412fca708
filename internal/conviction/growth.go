package conviction

import (
	"fmt"
	"math"
)

// Momentum trend labels reported by the growth stage
const (
	TrendFlat        = "flat"
	TrendLinear      = "linear"
	TrendExponential = "exponential"
)

// GrowthInputs carries the momentum-side adoption metrics for one entity.
// The growth stage reads these exclusively; risk-side evidence never
// enters here.
type GrowthInputs struct {
	Stars        float64
	Forks        float64
	StarVelocity float64 // stars gained per week
	Downloads    float64
	Engagement   float64 // social interactions over the window
	Mentions     float64 // mention volume over the window

	// WeeklyStars is the recent per-week star gain series, oldest first,
	// used for trend shape detection
	WeeklyStars []float64
}

// GrowthAssessment is the bull-case output of the first stage
type GrowthAssessment struct {
	TechnicalVelocityScore float64 // 0-100
	MomentumTrend          string
	BullThesis             []string
}

// scoring caps per component; they sum to 100
const (
	starsCap      = 30.0
	velocityCap   = 25.0
	downloadsCap  = 20.0
	engagementCap = 15.0
	mentionsCap   = 10.0
)

// AssessGrowth is a pure function from adoption metrics to the technical
// velocity score and bull thesis. Absolute counts score on a log scale so
// an order-of-magnitude difference matters more than a linear one.
func AssessGrowth(in GrowthInputs) GrowthAssessment {
	out := GrowthAssessment{MomentumTrend: detectTrend(in.WeeklyStars)}

	// forks count double: they indicate active use, not just curiosity
	stars := logScore(in.Stars+in.Forks*2, 5, starsCap)
	velocity := clipScore(in.StarVelocity/500*velocityCap, velocityCap)
	downloads := logScore(in.Downloads, 7, downloadsCap)
	engagement := logScore(in.Engagement, 5, engagementCap)
	mentions := logScore(in.Mentions, 4, mentionsCap)

	out.TechnicalVelocityScore = round2(stars + velocity + downloads + engagement + mentions)

	if in.Stars >= 1000 {
		out.BullThesis = append(out.BullThesis,
			fmt.Sprintf("established developer adoption: %.0f stars", in.Stars))
	}
	if in.StarVelocity >= 100 {
		out.BullThesis = append(out.BullThesis,
			fmt.Sprintf("rapid star accumulation: %.0f/week", in.StarVelocity))
	}
	if in.Downloads >= 100_000 {
		out.BullThesis = append(out.BullThesis,
			fmt.Sprintf("high download volume: %.0f over the window", in.Downloads))
	}
	if out.MomentumTrend == TrendExponential {
		out.BullThesis = append(out.BullThesis, "week-over-week growth is compounding")
	}
	if in.Mentions >= 50 {
		out.BullThesis = append(out.BullThesis,
			fmt.Sprintf("broad mention volume: %.0f mentions", in.Mentions))
	}

	return out
}

// detectTrend classifies the weekly gain series. Exponential means each
// of the last comparisons grew at least 1.5x over the previous week;
// linear means strictly increasing; anything else is flat. Fewer than
// three points cannot establish a shape.
func detectTrend(weekly []float64) string {
	if len(weekly) < 3 {
		return TrendFlat
	}

	exponential := true
	increasing := true
	for i := 1; i < len(weekly); i++ {
		prev, cur := weekly[i-1], weekly[i]
		if cur <= prev {
			increasing = false
		}
		if prev <= 0 || cur < prev*1.5 {
			exponential = false
		}
	}

	switch {
	case exponential:
		return TrendExponential
	case increasing:
		return TrendLinear
	default:
		return TrendFlat
	}
}

// logScore maps a non-negative count to [0,limit] with saturation at
// 10^saturationExp
func logScore(value float64, saturationExp float64, limit float64) float64 {
	if value <= 0 {
		return 0
	}
	return clipScore(math.Log10(value+1)/saturationExp*limit, limit)
}

func clipScore(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
