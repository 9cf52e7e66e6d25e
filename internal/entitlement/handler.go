// AngelaMos | 2026
// handler.go

package entitlement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/limits"
)

type Handler struct {
	resolver SnapshotResolver
}

func NewHandler(resolver SnapshotResolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes mounts the wedding-scoped queries. r is expected to already
// sit under /weddings/{weddingID} behind the membership guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/entitlement", h.GetEntitlement)
	r.Get("/limits/{feature}", h.CheckLimit)
}

// RegisterAdminRoutes mounts the support lookup. r is expected to already
// sit under /admin behind the admin guard.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/weddings/{"+WeddingIDParam+"}/entitlement", h.GetEntitlement)
}

func (h *Handler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	snap := h.resolver.Resolve(r.Context(), chi.URLParam(r, WeddingIDParam))
	core.OK(w, ToEntitlementResponse(snap))
}

func (h *Handler) CheckLimit(w http.ResponseWriter, r *http.Request) {
	feature, err := limits.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		if errors.Is(err, limits.ErrUnknownFeature) {
			core.BadRequest(w, "unknown feature")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	count, err := parseCount(r.URL.Query().Get("count"))
	if err != nil {
		core.BadRequest(w, "count must be a non-negative integer")
		return
	}

	snap := h.resolver.Resolve(r.Context(), chi.URLParam(r, WeddingIDParam))

	//nolint:errcheck // tier comes from the resolver and feature is parsed
	quota, _ := limits.Quota(snap.EffectiveTier, feature)

	core.OK(w, LimitCheckResponse{
		Feature:      feature,
		Tier:         snap.EffectiveTier,
		CurrentCount: count,
		Quota:        quota,
		Allowed:      limits.CheckLimit(snap.EffectiveTier, feature, count),
	})
}

func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("count is required")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("count is negative")
	}
	return n, nil
}
