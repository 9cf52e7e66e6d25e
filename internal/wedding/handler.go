// AngelaMos | 2026
// handler.go

package wedding

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/limits"
	"github.com/carterperez-dev/weddingplanner/internal/middleware"
)

type contextKey string

const roleKey contextKey = "wedding_role"

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts /weddings. Every route under /weddings/{weddingID}
// runs behind the membership guard, including the ones added by scoped.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	premium func(http.Handler) http.Handler,
	scoped ...func(chi.Router),
) {
	r.Route("/weddings", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{"+entitlement.WeddingIDParam+"}", func(r chi.Router) {
			r.Use(h.RequireMember)

			r.Get("/", h.Get)
			r.Get("/collaborators", h.ListCollaborators)
			r.Post("/collaborators", h.AddCollaborator)
			r.Delete("/collaborators/{userID}", h.RemoveCollaborator)
			r.With(premium).Get("/members/export", h.ExportMembers)

			for _, mount := range scoped {
				mount(r)
			}
		})
	})
}

// RequireMember answers 404 for a wedding that does not exist and 403 when
// the caller is not one of its members.
func (h *Handler) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weddingID := chi.URLParam(r, entitlement.WeddingIDParam)
		userID := middleware.GetUserID(r.Context())

		role, err := h.service.Role(r.Context(), weddingID, userID)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrNotFound):
				core.NotFound(w, "wedding")
			case errors.Is(err, core.ErrForbidden):
				core.Forbidden(w, "not a member of this wedding")
			default:
				core.InternalServerError(w, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	wedding, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToWeddingResponse(wedding))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	weddings, err := h.service.ListForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToWeddingResponseList(weddings))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wedding, err := h.service.Get(r.Context(), chi.URLParam(r, entitlement.WeddingIDParam))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "wedding")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToWeddingResponse(wedding))
}

func (h *Handler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), chi.URLParam(r, entitlement.WeddingIDParam))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToMemberResponseList(members))
}

func (h *Handler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req AddCollaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	member, err := h.service.AddCollaborator(
		r.Context(),
		chi.URLParam(r, entitlement.WeddingIDParam),
		req,
	)
	if err != nil {
		var exceeded *limits.ExceededError
		switch {
		case errors.As(err, &exceeded):
			core.JSONError(w, core.PlanLimitError(exceeded.Error()).WithDetails(map[string]any{
				"feature": exceeded.Feature,
				"quota":   exceeded.Quota,
			}))
		case errors.Is(err, core.ErrDuplicateKey):
			core.JSONError(w, core.DuplicateError("collaborator"))
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "wedding")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, MemberResponse{
		UserID:    member.UserID,
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	})
}

func (h *Handler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveCollaborator(
		r.Context(),
		chi.URLParam(r, entitlement.WeddingIDParam),
		GetRole(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "only the owner can remove collaborators")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "collaborator")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

// ExportMembers streams the member list as CSV. Premium only.
func (h *Handler) ExportMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), chi.URLParam(r, entitlement.WeddingIDParam))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	//nolint:errcheck // headers already sent, nothing useful to do on failure
	_ = cw.Write([]string{"user_id", "role", "joined_at"})
	for _, m := range members {
		//nolint:errcheck // same as above
		_ = cw.Write([]string{m.UserID, m.Role, m.CreatedAt.UTC().Format(time.RFC3339)})
	}
	cw.Flush()
}
