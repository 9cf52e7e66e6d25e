// AngelaMos | 2026
// middleware.go

package entitlement

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/metrics"
)

type contextKey string

const snapshotKey contextKey = "entitlement_snapshot"

// WeddingIDParam is the chi URL parameter every wedding-scoped route uses.
const WeddingIDParam = "weddingID"

type SnapshotResolver interface {
	Resolve(ctx context.Context, weddingID string) Snapshot
}

type UpgradePrompt struct {
	EffectiveTier string `json:"effective_tier"`
	IsInTrial     bool   `json:"is_in_trial"`
	CheckoutPath  string `json:"checkout_path"`
}

// RequirePremium resolves the wedding's tier on every request and answers
// 402 with an upgrade prompt unless it is premium.
func RequirePremium(resolver SnapshotResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			weddingID := chi.URLParam(r, WeddingIDParam)
			snap := resolver.Resolve(r.Context(), weddingID)

			if !snap.IsPremium() {
				metrics.RecordUpgradePrompt()
				core.JSONError(w, core.UpgradeRequiredError("").WithDetails(UpgradePrompt{
					EffectiveTier: string(snap.EffectiveTier),
					IsInTrial:     snap.IsInTrial,
					CheckoutPath:  "/v1/weddings/" + weddingID + "/checkout",
				}))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSnapshot(r.Context(), snap)))
		})
	}
}

func WithSnapshot(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey, snap)
}

func SnapshotFromContext(ctx context.Context) (Snapshot, bool) {
	snap, ok := ctx.Value(snapshotKey).(Snapshot)
	return snap, ok
}
