// AngelaMos | 2026
// entity.go

package wedding

import (
	"time"
)

// Wedding is a workspace. Tier is the advisory label kept for reporting;
// entitlement is always derived from PaymentID and TrialEndsAt.
type Wedding struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	OwnerID     string     `db:"owner_id"`
	Tier        string     `db:"tier"`
	PaymentID   *string    `db:"payment_id"`
	TrialEndsAt *time.Time `db:"trial_ends_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (w *Wedding) IsPaid() bool {
	return w.PaymentID != nil && *w.PaymentID != ""
}

type Member struct {
	WeddingID string    `db:"wedding_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (m *Member) IsOwner() bool {
	return m.Role == RoleOwner
}

// Membership is the caller's standing in a wedding that exists. Role is nil
// when the caller is not a member.
type Membership struct {
	WeddingID string  `db:"wedding_id"`
	Role      *string `db:"role"`
}

const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
)

const (
	labelFree    = "free"
	labelPremium = "premium"
)
