package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNonLinearFixedPoint(t *testing.T) {
	for _, k := range []float64{-2, 0, 0.3, 1, 5} {
		assert.Equal(t, 0.5, NormalizeNonLinear(0.5, k), "k=%v", k)
	}
}

func TestNormalizeNonLinearBounds(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		k     float64
		want  float64
	}{
		{name: "below range clamps to zero input", value: -1, k: 0.3, want: 0.0375},
		{name: "above range clamps to one input", value: 7, k: 0.3, want: 0.9625},
		{name: "k zero is identity", value: 0.2, k: 0, want: 0.2},
		{name: "low share pulled to center", value: 0.2, k: 0.3, want: 0.2081},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeNonLinear(tt.value, tt.k), 1e-9)
		})
	}

	for v := -0.5; v <= 1.5; v += 0.05 {
		for _, k := range []float64{0, 0.3, 4, 50} {
			got := NormalizeNonLinear(v, k)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestCalculateBaseEffect(t *testing.T) {
	for _, target := range []float64{0, 0.35, 1, 42} {
		for _, aggression := range []float64{0, 1, 15} {
			assert.Zero(t, CalculateBaseEffect(target, target, aggression))
		}
	}
	assert.InDelta(t, 2.25, CalculateBaseEffect(0.2, 0.35, 15), 1e-9)
	assert.InDelta(t, -2.25, CalculateBaseEffect(0.5, 0.35, 15), 1e-9)
}

func TestCalculateZScore(t *testing.T) {
	assert.Zero(t, CalculateZScore(1000, 10, 0))
	assert.Zero(t, CalculateZScore(-3, 99, 0))
	assert.InDelta(t, 1.0, CalculateZScore(12, 10, 2), 1e-12)
	assert.InDelta(t, -2.5, CalculateZScore(5, 10, 2), 1e-12)
}

func TestSeasonCoefficientsSumToOne(t *testing.T) {
	quarterSum := 0.0
	for _, c := range QuarterCoefficients {
		quarterSum += c
	}
	assert.InDelta(t, 1.0, quarterSum, 1e-9)

	monthSum := 0.0
	for _, c := range MonthCoefficients {
		monthSum += c
	}
	assert.InDelta(t, 1.0, monthSum, 1e-9)
}

func TestSeasonalPlan(t *testing.T) {
	quarterly, monthly := SeasonalPlan(1000)

	assert.InDelta(t, 220, quarterly[0], 1e-9)
	assert.InDelta(t, 270, quarterly[2], 1e-9)

	qSum, mSum := 0.0, 0.0
	for _, q := range quarterly {
		qSum += q
	}
	for _, m := range monthly {
		mSum += m
	}
	assert.InDelta(t, 1000, qSum, 1e-6)
	assert.InDelta(t, 1000, mSum, 1e-6)
	assert.InDelta(t, DistributeYearToMonth(1000, MonthCoefficients[0]), monthly[0], 1e-9)
}
