// AngelaMos | 2026
// fake_test.go

package wedding_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/wedding"
)

type memRepo struct {
	mu       sync.Mutex
	weddings map[string]*wedding.Wedding
	members  map[string][]wedding.Member
}

func newMemRepo() *memRepo {
	return &memRepo{
		weddings: map[string]*wedding.Wedding{},
		members:  map[string][]wedding.Member{},
	}
}

func (m *memRepo) Create(_ context.Context, w *wedding.Wedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	m.weddings[w.ID] = &cp
	m.members[w.ID] = append(m.members[w.ID], wedding.Member{
		WeddingID: w.ID,
		UserID:    w.OwnerID,
		Role:      wedding.RoleOwner,
	})
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*wedding.Wedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.weddings[id]
	if !ok {
		return nil, fmt.Errorf("get wedding: %w", core.ErrNotFound)
	}
	cp := *w
	return &cp, nil
}

func (m *memRepo) ListForUser(_ context.Context, userID string) ([]wedding.Wedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []wedding.Wedding
	for id, members := range m.members {
		for _, mem := range members {
			if mem.UserID == userID {
				out = append(out, *m.weddings[id])
			}
		}
	}
	return out, nil
}

func (m *memRepo) GetBillingState(_ context.Context, id string) (*entitlement.BillingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.weddings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &entitlement.BillingState{PaymentID: w.PaymentID, TrialEndsAt: w.TrialEndsAt}, nil
}

func (m *memRepo) MarkPaid(_ context.Context, id, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.weddings[id]
	if !ok {
		return false, core.ErrNotFound
	}
	if w.PaymentID == nil {
		w.PaymentID = &orderID
		return true, nil
	}
	if *w.PaymentID == orderID {
		return false, nil
	}
	return false, core.ErrConflict
}

func (m *memRepo) GetMembership(_ context.Context, weddingID, userID string) (*wedding.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.weddings[weddingID]; !ok {
		return nil, core.ErrNotFound
	}
	ms := &wedding.Membership{WeddingID: weddingID}
	for _, mem := range m.members[weddingID] {
		if mem.UserID == userID {
			role := mem.Role
			ms.Role = &role
		}
	}
	return ms, nil
}

func (m *memRepo) ListMembers(_ context.Context, weddingID string) ([]wedding.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]wedding.Member(nil), m.members[weddingID]...), nil
}

func (m *memRepo) AddCollaborator(
	_ context.Context,
	mem *wedding.Member,
	admit func(current int64) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.weddings[mem.WeddingID]; !ok {
		return core.ErrNotFound
	}

	var current int64
	for _, existing := range m.members[mem.WeddingID] {
		if existing.UserID == mem.UserID {
			return core.ErrDuplicateKey
		}
		if existing.Role == wedding.RoleCollaborator {
			current++
		}
	}

	if err := admit(current); err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}

	mem.Role = wedding.RoleCollaborator
	mem.CreatedAt = time.Now()
	m.members[mem.WeddingID] = append(m.members[mem.WeddingID], *mem)
	return nil
}

func (m *memRepo) RemoveCollaborator(_ context.Context, weddingID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.members[weddingID]
	for i, mem := range members {
		if mem.UserID == userID && mem.Role == wedding.RoleCollaborator {
			m.members[weddingID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memRepo) Stats(_ context.Context, now time.Time) (*wedding.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &wedding.Stats{}
	for _, w := range m.weddings {
		s.Total++
		switch {
		case w.IsPaid():
			s.Paid++
		case w.TrialEndsAt != nil && w.TrialEndsAt.After(now):
			s.Trialing++
		}
	}
	return s, nil
}
