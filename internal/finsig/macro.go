package finsig

import (
	"sort"

	"github.com/wonny/argus/internal/contracts"
)

// minMacroPoints is the history floor below which a series is excluded
// from the regime composite rather than guessed at
const minMacroPoints = 10

// computeMacroRegime builds the weighted z-score composite from the
// fetched series histories. Missing or short series are skipped, never
// zero-filled; weights renormalize over the components actually present.
// The result is context only and never multiplies into bucket scores.
func computeMacroRegime(series []MacroSeriesSpec, histories map[string][]float64) *contracts.MacroRegimeSignal {
	signal := &contracts.MacroRegimeSignal{}

	var weightedSum, totalWeight float64

	for _, spec := range series {
		history, ok := histories[spec.SeriesID]
		if !ok || len(history) < minMacroPoints {
			signal.Excluded = append(signal.Excluded, spec.SeriesID)
			continue
		}

		z := zScore(history)
		if spec.Invert {
			z = -z
		}

		signal.Components = append(signal.Components, contracts.MacroComponent{
			SeriesID: spec.SeriesID,
			ZScore:   z,
			Weight:   spec.Weight,
			Inverted: spec.Invert,
		})

		weightedSum += spec.Weight * z
		totalWeight += spec.Weight
	}

	sort.Strings(signal.Excluded)

	if totalWeight > 0 {
		signal.Score = clip(weightedSum/totalWeight, -1, 1)
	}
	signal.Interpretation = contracts.InterpretMacro(signal.Score)

	return signal
}
