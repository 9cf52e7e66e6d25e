// AngelaMos | 2026
// dto.go

package wedding

import (
	"time"
)

type CreateWeddingRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

type AddCollaboratorRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
}

type WeddingResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	OwnerID     string     `json:"owner_id"`
	IsPaid      bool       `json:"is_paid"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func ToWeddingResponse(w *Wedding) WeddingResponse {
	return WeddingResponse{
		ID:          w.ID,
		Name:        w.Name,
		OwnerID:     w.OwnerID,
		IsPaid:      w.IsPaid(),
		TrialEndsAt: w.TrialEndsAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func ToWeddingResponseList(weddings []Wedding) []WeddingResponse {
	out := make([]WeddingResponse, len(weddings))
	for i := range weddings {
		out[i] = ToWeddingResponse(&weddings[i])
	}
	return out
}

func ToMemberResponseList(members []Member) []MemberResponse {
	out := make([]MemberResponse, len(members))
	for i, m := range members {
		out[i] = MemberResponse{
			UserID:    m.UserID,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}
