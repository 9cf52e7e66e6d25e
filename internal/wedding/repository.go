// AngelaMos | 2026
// repository.go

package wedding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
)

type Repository interface {
	Create(ctx context.Context, w *Wedding) error
	GetByID(ctx context.Context, id string) (*Wedding, error)
	ListForUser(ctx context.Context, userID string) ([]Wedding, error)
	GetBillingState(ctx context.Context, id string) (*entitlement.BillingState, error)
	MarkPaid(ctx context.Context, id, orderID string) (bool, error)
	GetMembership(ctx context.Context, weddingID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, weddingID string) ([]Member, error)
	AddCollaborator(ctx context.Context, m *Member, admit func(current int64) error) error
	RemoveCollaborator(ctx context.Context, weddingID, userID string) error
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

type Stats struct {
	Total    int64 `db:"total"    json:"total"`
	Paid     int64 `db:"paid"     json:"paid"`
	Trialing int64 `db:"trialing" json:"trialing"`
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Wedding ids are UUIDs; anything else cannot exist and is reported as not
// found without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *repository) Create(ctx context.Context, w *Wedding) error {
	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertWedding(ctx, tx, w); err != nil {
			return err
		}
		return insertMember(ctx, tx, &Member{
			WeddingID: w.ID,
			UserID:    w.OwnerID,
			Role:      RoleOwner,
		})
	})
	if err != nil {
		return fmt.Errorf("create wedding: %w", err)
	}
	return nil
}

func insertWedding(ctx context.Context, q core.DBTX, w *Wedding) error {
	query := `
		INSERT INTO weddings (id, name, owner_id, tier, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := q.GetContext(ctx, w, query,
		w.ID,
		w.Name,
		w.OwnerID,
		w.Tier,
		w.TrialEndsAt,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("insert wedding: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert wedding: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, q core.DBTX, m *Member) error {
	query := `
		INSERT INTO wedding_members (wedding_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := q.GetContext(ctx, &m.CreatedAt, query, m.WeddingID, m.UserID, m.Role)
	if err != nil {
		switch {
		case core.IsUniqueViolation(err):
			return fmt.Errorf("insert member: %w", core.ErrDuplicateKey)
		case core.IsForeignKeyViolation(err):
			return fmt.Errorf("insert member: %w", core.ErrNotFound)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Wedding, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get wedding: %w", core.ErrNotFound)
	}

	query := `
		SELECT id, name, owner_id, tier, payment_id, trial_ends_at,
		       created_at, updated_at
		FROM weddings
		WHERE id = $1`

	var w Wedding
	err := r.db.GetContext(ctx, &w, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get wedding: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get wedding: %w", err)
	}

	return &w, nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID string,
) ([]Wedding, error) {
	query := `
		SELECT w.id, w.name, w.owner_id, w.tier, w.payment_id,
		       w.trial_ends_at, w.created_at, w.updated_at
		FROM weddings w
		JOIN wedding_members m ON m.wedding_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.created_at DESC`

	var weddings []Wedding
	if err := r.db.SelectContext(ctx, &weddings, query, userID); err != nil {
		return nil, fmt.Errorf("list weddings: %w", err)
	}

	return weddings, nil
}

// GetBillingState reads only the two columns entitlement is derived from.
func (r *repository) GetBillingState(
	ctx context.Context,
	id string,
) (*entitlement.BillingState, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get billing state: %w", core.ErrNotFound)
	}

	query := `
		SELECT payment_id, trial_ends_at
		FROM weddings
		WHERE id = $1`

	var state entitlement.BillingState
	err := r.db.GetContext(ctx, &state, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get billing state: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get billing state: %w", err)
	}

	return &state, nil
}

// MarkPaid records orderID as the wedding's payment if none is recorded yet.
// It reports true when this call changed the row. A repeat with the same
// order id returns false and no error. A different recorded order id is
// left untouched and reported as core.ErrConflict.
func (r *repository) MarkPaid(
	ctx context.Context,
	id, orderID string,
) (bool, error) {
	if !validID(id) {
		return false, fmt.Errorf("mark paid: %w", core.ErrNotFound)
	}

	query := `
		UPDATE weddings
		SET payment_id = $2, tier = $3, updated_at = NOW()
		WHERE id = $1 AND payment_id IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, orderID, labelPremium)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	if rows == 1 {
		return true, nil
	}

	var recorded sql.NullString
	err = r.db.GetContext(ctx, &recorded,
		`SELECT payment_id FROM weddings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("mark paid: %w", core.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}

	if recorded.Valid && recorded.String == orderID {
		return false, nil
	}

	return false, fmt.Errorf("mark paid: %w", core.ErrConflict)
}

func (r *repository) GetMembership(
	ctx context.Context,
	weddingID, userID string,
) (*Membership, error) {
	if !validID(weddingID) {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}

	query := `
		SELECT w.id AS wedding_id, m.role
		FROM weddings w
		LEFT JOIN wedding_members m
		       ON m.wedding_id = w.id AND m.user_id = $2
		WHERE w.id = $1`

	var ms Membership
	err := r.db.GetContext(ctx, &ms, query, weddingID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return &ms, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	weddingID string,
) ([]Member, error) {
	query := `
		SELECT wedding_id, user_id, role, created_at
		FROM wedding_members
		WHERE wedding_id = $1
		ORDER BY created_at ASC`

	var members []Member
	if err := r.db.SelectContext(ctx, &members, query, weddingID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// AddCollaborator locks the wedding row, counts existing collaborators and
// lets admit veto the insert. Concurrent adds on one wedding serialize on
// the lock, so the quota cannot be overshot.
func (r *repository) AddCollaborator(
	ctx context.Context,
	m *Member,
	admit func(current int64) error,
) error {
	if !validID(m.WeddingID) {
		return fmt.Errorf("add collaborator: %w", core.ErrNotFound)
	}

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked string
		err := tx.GetContext(ctx, &locked,
			`SELECT id FROM weddings WHERE id = $1 FOR UPDATE`, m.WeddingID)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return err
		}

		var current int64
		err = tx.GetContext(ctx, &current, `
			SELECT COUNT(*) FROM wedding_members
			WHERE wedding_id = $1 AND role = $2`,
			m.WeddingID, RoleCollaborator)
		if err != nil {
			return err
		}

		if err := admit(current); err != nil {
			return err
		}

		m.Role = RoleCollaborator
		return insertMember(ctx, tx, m)
	})
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	return nil
}

func (r *repository) RemoveCollaborator(
	ctx context.Context,
	weddingID, userID string,
) error {
	if !validID(weddingID) {
		return fmt.Errorf("remove collaborator: %w", core.ErrNotFound)
	}

	query := `
		DELETE FROM wedding_members
		WHERE wedding_id = $1 AND user_id = $2 AND role = $3`

	res, err := r.db.ExecContext(ctx, query, weddingID, userID, RoleCollaborator)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove collaborator: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(payment_id) AS paid,
		       COUNT(*) FILTER (
		           WHERE payment_id IS NULL AND trial_ends_at > $1
		       ) AS trialing
		FROM weddings`

	var s Stats
	if err := r.db.GetContext(ctx, &s, query, now); err != nil {
		return nil, fmt.Errorf("wedding stats: %w", err)
	}
	return &s, nil
}
