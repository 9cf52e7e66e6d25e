// AngelaMos | 2026
// limits_test.go

package limits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/weddingplanner/internal/limits"
)

func TestCheckLimit_FreeGuestsBoundary(t *testing.T) {
	t.Parallel()

	assert.True(t, limits.CheckLimit(limits.TierFree, limits.FeatureGuests, 999))
	assert.False(t, limits.CheckLimit(limits.TierFree, limits.FeatureGuests, 1000))
	assert.False(t, limits.CheckLimit(limits.TierFree, limits.FeatureGuests, 1001))
}

func TestCheckLimit_PremiumIsUnbounded(t *testing.T) {
	t.Parallel()

	counts := []int64{0, 1, 2, 999, 1000, 1_000_000, 1 << 62}
	for _, f := range limits.Features() {
		for _, c := range counts {
			assert.True(t, limits.CheckLimit(limits.TierPremium, f, c), "feature %s count %d", f, c)
		}
	}
}

func TestCheckLimit_EveryFreeQuotaIsExclusive(t *testing.T) {
	t.Parallel()

	for _, f := range limits.Features() {
		t.Run(string(f), func(t *testing.T) {
			t.Parallel()

			quota, err := limits.Quota(limits.TierFree, f)
			require.NoError(t, err)
			require.Positive(t, quota)

			assert.True(t, limits.CheckLimit(limits.TierFree, f, quota-1))
			assert.False(t, limits.CheckLimit(limits.TierFree, f, quota))
		})
	}
}

func TestCheckLimit_UnknownFeaturePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		limits.CheckLimit(limits.TierFree, limits.Feature("seating_charts"), 0)
	})
	assert.Panics(t, func() {
		limits.CheckLimit(limits.TierPremium, limits.Feature(""), 0)
	})
}

func TestCheckLimit_UnknownTierIsTreatedAsFree(t *testing.T) {
	t.Parallel()

	assert.False(t, limits.CheckLimit(limits.Tier("gold"), limits.FeatureCollaborators, 2))
	assert.True(t, limits.CheckLimit(limits.Tier("gold"), limits.FeatureCollaborators, 1))
}

func TestQuota(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tier    limits.Tier
		feature limits.Feature
		want    int64
		wantErr error
	}{
		{"free guests", limits.TierFree, limits.FeatureGuests, 1000, nil},
		{"free collaborators", limits.TierFree, limits.FeatureCollaborators, 2, nil},
		{"premium vendors", limits.TierPremium, limits.FeatureVendors, limits.Unlimited, nil},
		{"unknown feature", limits.TierFree, limits.Feature("playlists"), 0, limits.ErrUnknownFeature},
		{"unknown tier", limits.Tier("gold"), limits.FeatureEvents, 0, limits.ErrUnknownTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := limits.Quota(tt.tier, tt.feature)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFeature(t *testing.T) {
	t.Parallel()

	f, err := limits.ParseFeature("budget_items")
	require.NoError(t, err)
	assert.Equal(t, limits.FeatureBudgetItems, f)

	_, err = limits.ParseFeature("Budget_Items")
	require.ErrorIs(t, err, limits.ErrUnknownFeature)
}

func TestQuotas_ReturnsCopy(t *testing.T) {
	t.Parallel()

	free := limits.Quotas(limits.TierFree)
	require.Len(t, free, len(limits.Features()))
	free[limits.FeatureGuests] = 1

	q, err := limits.Quota(limits.TierFree, limits.FeatureGuests)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q)

	for _, v := range limits.Quotas(limits.TierPremium) {
		assert.Equal(t, limits.Unlimited, v)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unlimited", limits.Describe(limits.Unlimited))
	assert.Equal(t, "25", limits.Describe(25))
}

func TestCheck_ReturnsExceededError(t *testing.T) {
	t.Parallel()

	require.NoError(t, limits.Check(limits.TierFree, limits.FeatureCollaborators, 1))

	err := limits.Check(limits.TierFree, limits.FeatureCollaborators, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, limits.ErrLimitReached)

	var exceeded *limits.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, int64(2), exceeded.Quota)
	assert.Equal(t, limits.TierFree, exceeded.Tier)
	assert.Equal(t, "free plan allows 2 collaborators", err.Error())
}

func TestCheck_PremiumNeverRefuses(t *testing.T) {
	t.Parallel()

	assert.NoError(t, limits.Check(limits.TierPremium, limits.FeatureEvents, 1_000_000))
}
