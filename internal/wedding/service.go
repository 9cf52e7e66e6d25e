// AngelaMos | 2026
// service.go

package wedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/limits"
	"github.com/carterperez-dev/weddingplanner/internal/metrics"
)

type Service struct {
	repo     Repository
	resolver entitlement.SnapshotResolver
	trial    time.Duration
	now      func() time.Time
}

func NewService(
	repo Repository,
	resolver entitlement.SnapshotResolver,
	trial time.Duration,
) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		trial:    trial,
		now:      time.Now,
	}
}

// Create opens a wedding with the trial window starting now. A zero trial
// length leaves trial_ends_at unset.
func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateWeddingRequest,
) (*Wedding, error) {
	w := &Wedding{
		ID:      uuid.New().String(),
		Name:    strings.TrimSpace(req.Name),
		OwnerID: ownerID,
		Tier:    labelFree,
	}

	if s.trial > 0 {
		ends := s.now().UTC().Add(s.trial)
		w.TrialEndsAt = &ends
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Wedding, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Wedding, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Role returns the caller's role in the wedding. core.ErrNotFound means the
// wedding does not exist, core.ErrForbidden that the caller is not a member.
func (s *Service) Role(ctx context.Context, weddingID, userID string) (string, error) {
	ms, err := s.repo.GetMembership(ctx, weddingID, userID)
	if err != nil {
		return "", err
	}
	if ms.Role == nil {
		return "", fmt.Errorf("membership: %w", core.ErrForbidden)
	}
	return *ms.Role, nil
}

func (s *Service) ListMembers(ctx context.Context, weddingID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, weddingID)
}

// AddCollaborator admits one more collaborator if the wedding's freshly
// resolved tier allows it. The owner is not counted.
func (s *Service) AddCollaborator(
	ctx context.Context,
	weddingID string,
	req AddCollaboratorRequest,
) (*Member, error) {
	snap := s.resolver.Resolve(ctx, weddingID)

	m := &Member{
		WeddingID: weddingID,
		UserID:    strings.TrimSpace(req.UserID),
	}

	err := s.repo.AddCollaborator(ctx, m, func(current int64) error {
		return limits.Check(snap.EffectiveTier, limits.FeatureCollaborators, current)
	})
	if err != nil {
		if errors.Is(err, limits.ErrLimitReached) {
			metrics.RecordPlanLimitDenial(string(limits.FeatureCollaborators))
		}
		return nil, err
	}

	return m, nil
}

func (s *Service) RemoveCollaborator(
	ctx context.Context,
	weddingID, callerRole, userID string,
) error {
	if callerRole != RoleOwner {
		return fmt.Errorf("remove collaborator: %w", core.ErrForbidden)
	}
	return s.repo.RemoveCollaborator(ctx, weddingID, userID)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.now())
}
