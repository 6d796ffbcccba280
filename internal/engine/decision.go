package engine

import "stocktake/internal"

// Decide compares a physical count against the reference quantity. Pure: no
// I/O, same inputs always give the same decision. minorMax is the largest
// absolute delta still classed MINOR; it is a display tier, not a rule the
// engine acts on.
func Decide(referenceQuantity float64, countedQuantity, minorMax int) internal.AdjustmentDecision {
	delta := float64(countedQuantity) - referenceQuantity

	decision := internal.AdjustmentDecision{
		CountedQuantity:   countedQuantity,
		ReferenceQuantity: referenceQuantity,
		Delta:             delta,
	}

	switch {
	case delta == 0:
		decision.Kind = internal.KindMatch
		decision.Magnitude = internal.MagnitudeNone
	case delta > 0:
		decision.Kind = internal.KindSurplus
	default:
		decision.Kind = internal.KindShortage
	}

	if decision.Kind != internal.KindMatch {
		abs := delta
		if abs < 0 {
			abs = -abs
		}
		if abs <= float64(minorMax) {
			decision.Magnitude = internal.MagnitudeMinor
		} else {
			decision.Magnitude = internal.MagnitudeMajor
		}
	}

	return decision
}
