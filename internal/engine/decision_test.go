package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stocktake/internal"
	"stocktake/internal/engine"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name      string
		reference float64
		counted   int
		kind      internal.DecisionKind
		magnitude internal.MagnitudeClass
		delta     float64
	}{
		{name: "exact match", reference: 10, counted: 10, kind: internal.KindMatch, magnitude: internal.MagnitudeNone, delta: 0},
		{name: "minor shortage", reference: 10, counted: 8, kind: internal.KindShortage, magnitude: internal.MagnitudeMinor, delta: -2},
		{name: "major shortage", reference: 10, counted: 7, kind: internal.KindShortage, magnitude: internal.MagnitudeMajor, delta: -3},
		{name: "minor surplus", reference: 10, counted: 11, kind: internal.KindSurplus, magnitude: internal.MagnitudeMinor, delta: 1},
		{name: "major surplus", reference: 10, counted: 20, kind: internal.KindSurplus, magnitude: internal.MagnitudeMajor, delta: 10},
		{name: "zero reference zero count", reference: 0, counted: 0, kind: internal.KindMatch, magnitude: internal.MagnitudeNone, delta: 0},
		{name: "fractional reference", reference: 2.5, counted: 2, kind: internal.KindShortage, magnitude: internal.MagnitudeMinor, delta: -0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Decide(tc.reference, tc.counted, 2)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.magnitude, got.Magnitude)
			assert.Equal(t, tc.delta, got.Delta)
			assert.Equal(t, tc.counted, got.CountedQuantity)
			assert.Equal(t, tc.reference, got.ReferenceQuantity)
		})
	}
}

func TestDecideDeterministic(t *testing.T) {
	first := engine.Decide(10, 8, 2)
	second := engine.Decide(10, 8, 2)
	assert.Equal(t, first, second)
}
