// AngelaMos | 2026
// dto.go

package entitlement

import "github.com/carterperez-dev/weddingplanner/internal/limits"

// EntitlementResponse pairs the snapshot with the quota table for its
// effective tier. A quota of -1 is unlimited.
type EntitlementResponse struct {
	Snapshot
	Quotas map[limits.Feature]int64 `json:"quotas"`
}

type LimitCheckResponse struct {
	Feature      limits.Feature `json:"feature"`
	Tier         limits.Tier    `json:"tier"`
	CurrentCount int64          `json:"current_count"`
	Quota        int64          `json:"quota"`
	Allowed      bool           `json:"allowed"`
}

func ToEntitlementResponse(snap Snapshot) EntitlementResponse {
	return EntitlementResponse{
		Snapshot: snap,
		Quotas:   limits.Quotas(snap.EffectiveTier),
	}
}
