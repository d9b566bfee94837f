package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerniceZTT/territory_end/models"
)

func factBuckets(facts ...float64) []models.SalesBucket {
	out := make([]models.SalesBucket, 0, len(facts))
	for i, f := range facts {
		out = append(out, bucket("R", "rm", "X", fmt.Sprintf("p%02d", i), client(fmt.Sprintf("c%02d", i), f, true)))
	}
	return out
}

func TestDetectOutliersSingleSpike(t *testing.T) {
	buckets := factBuckets(10, 10, 10, 10, 10, 10, 10, 10, 10, 1000)

	mean, std := PopulationStats(buckets)
	assert.Equal(t, 109.0, mean)
	assert.Equal(t, 297.0, std)

	got := DetectOutliers(buckets, DefaultAnomalyConfig())
	require.Len(t, got, 1)
	assert.Equal(t, 1000.0, got[0].Bucket.Fact)
	assert.Greater(t, got[0].ZScore, 2.9)
	assert.InDelta(t, 3.0, got[0].ZScore, 1e-9)
	// z 恰好等于 3 不算极端
	assert.Equal(t, models.SeverityOutlier, got[0].Severity)
	assert.Contains(t, got[0].Reason, "over-performance")
	require.Len(t, got[0].Contributions, 1)
	assert.Equal(t, models.DiagnosisDominant, got[0].Contributions[0].Diagnosis)
}

func TestDetectOutliersUnderPerformance(t *testing.T) {
	buckets := factBuckets(100, 100, 100, 100, 100, 100, 100, 100, 100, 1)

	got := DetectOutliers(buckets, DefaultAnomalyConfig())

	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Bucket.Fact)
	assert.Less(t, got[0].ZScore, -2.0)
	assert.Contains(t, got[0].Reason, "under-performance")
}

func TestDetectOutliersIgnoresNonPositiveBuckets(t *testing.T) {
	withEmpty := factBuckets(10, 10, 10, 10, 10, 10, 10, 10, 10, 1000, 0, -50)

	got := DetectOutliers(withEmpty, DefaultAnomalyConfig())

	require.Len(t, got, 1)
	for _, o := range got {
		assert.Greater(t, o.Bucket.Fact, 0.0)
	}
	mean, std := PopulationStats(withEmpty)
	assert.Equal(t, 109.0, mean)
	assert.Equal(t, 297.0, std)
}

func TestDetectOutliersFlatPopulation(t *testing.T) {
	assert.Empty(t, DetectOutliers(factBuckets(5, 5, 5, 5), DefaultAnomalyConfig()))
	assert.Empty(t, DetectOutliers(nil, DefaultAnomalyConfig()))
	assert.NotNil(t, DetectOutliers(nil, DefaultAnomalyConfig()))
}

func TestDetectOutliersExtremeAndOrdering(t *testing.T) {
	facts := make([]float64, 0, 40)
	for i := 0; i < 36; i++ {
		facts = append(facts, 10)
	}
	facts = append(facts, 400, 1000)

	got := DetectOutliers(factBuckets(facts...), AnomalyConfig{Threshold: 2, ExtremeThreshold: 3})

	require.Len(t, got, 2)
	assert.Equal(t, 1000.0, got[0].Bucket.Fact)
	assert.Equal(t, models.SeverityExtreme, got[0].Severity)
	assert.Contains(t, got[0].Reason, "Extreme")
	assert.GreaterOrEqual(t, math.Abs(got[0].ZScore), math.Abs(got[1].ZScore))
	for _, o := range got {
		assert.Greater(t, math.Abs(o.ZScore), 2.0)
	}
}

func TestContributionAnalysis(t *testing.T) {
	b := bucket("R", "rm", "X", "1L",
		client("e", 0, true),
		client("c", 12, true),
		client("a", 60, true),
		client("d", 3, true),
		client("b", 25, true),
	)

	tests := []struct {
		name string
		z    float64
		want map[string]string
	}{
		{
			name: "positive outlier",
			z:    2.5,
			want: map[string]string{
				"a": models.DiagnosisDominant,
				"b": models.DiagnosisSignificant,
				"c": "",
				"d": models.DiagnosisLowContribution,
				"e": "",
			},
		},
		{
			name: "negative outlier",
			z:    -2.5,
			want: map[string]string{
				"a": models.DiagnosisSignificant,
				"b": models.DiagnosisSignificant,
				"c": "",
				"d": models.DiagnosisLowContribution,
				"e": models.DiagnosisZeroSale,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContributionAnalysis(b, tt.z)
			require.Len(t, got, 5)

			order := make([]string, 0, len(got))
			for _, c := range got {
				order = append(order, c.ClientKey)
				assert.Equal(t, tt.want[c.ClientKey], c.Diagnosis, c.ClientKey)
			}
			assert.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
			assert.InDelta(t, 60.0, got[0].SharePct, 1e-9)
		})
	}
}
