// AngelaMos | 2026
// entitlement.go

// Package entitlement derives, on every request, whether a wedding may use
// premium capabilities. The answer comes from two stored facts: whether a
// payment was recorded and when the trial window closes.
package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/weddingplanner/internal/limits"
	"github.com/carterperez-dev/weddingplanner/internal/metrics"
)

const tracerName = "github.com/carterperez-dev/weddingplanner/internal/entitlement"

const day = 24 * time.Hour

var errMissingState = errors.New("billing state missing")

// BillingState is the only stored data the resolver looks at.
type BillingState struct {
	PaymentID   *string    `db:"payment_id"`
	TrialEndsAt *time.Time `db:"trial_ends_at"`
}

type BillingReader interface {
	GetBillingState(ctx context.Context, weddingID string) (*BillingState, error)
}

type Snapshot struct {
	EffectiveTier limits.Tier `json:"effective_tier"`
	IsInTrial     bool        `json:"is_in_trial"`
	TrialEndsAt   *time.Time  `json:"trial_ends_at"`
	DaysRemaining *int        `json:"days_remaining"`
	IsPaidPremium bool        `json:"is_paid_premium"`
}

func (s Snapshot) IsPremium() bool {
	return s.EffectiveTier == limits.TierPremium
}

// Free is the snapshot used whenever the billing state cannot be read.
func Free() Snapshot {
	return Snapshot{EffectiveTier: limits.TierFree}
}

// Compute derives a snapshot from state as of now.
func Compute(state BillingState, now time.Time) Snapshot {
	snap := Snapshot{
		EffectiveTier: limits.TierFree,
		TrialEndsAt:   state.TrialEndsAt,
		IsPaidPremium: state.PaymentID != nil && *state.PaymentID != "",
	}

	if state.TrialEndsAt != nil && state.TrialEndsAt.After(now) {
		snap.IsInTrial = true
		days := daysUntil(*state.TrialEndsAt, now)
		snap.DaysRemaining = &days
	}

	if snap.IsPaidPremium || snap.IsInTrial {
		snap.EffectiveTier = limits.TierPremium
	}

	return snap
}

// daysUntil rounds up, so any part of a day left counts as a whole day.
// Sub saturates past ~292 years, so long spans are counted in seconds.
func daysUntil(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining == math.MaxInt64 {
		secs := end.Unix() - now.Unix()
		return int(ceilDiv(secs, int64(day/time.Second)))
	}
	return int(ceilDiv(int64(remaining), int64(day)))
}

func ceilDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

type Resolver struct {
	reader BillingReader
	now    func() time.Time
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(reader BillingReader, opts ...Option) *Resolver {
	r := &Resolver{
		reader: reader,
		now:    time.Now,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails. A read error or a missing wedding yields Free, so a
// degraded store can deny premium access but never grant it.
func (r *Resolver) Resolve(ctx context.Context, weddingID string) Snapshot {
	ctx, span := r.tracer.Start(ctx, "entitlement.Resolve",
		trace.WithAttributes(attribute.String("wedding.id", weddingID)),
	)
	defer span.End()

	state, err := r.reader.GetBillingState(ctx, weddingID)
	if err != nil || state == nil {
		r.logger.WarnContext(ctx, "entitlement resolution failed, using free tier",
			"wedding_id", weddingID,
			"error", err,
		)
		span.RecordError(errOrMissing(err))
		metrics.RecordEntitlementResolution(string(limits.TierFree), true)
		return Free()
	}

	snap := Compute(*state, r.now())

	span.SetAttributes(
		attribute.String("entitlement.tier", string(snap.EffectiveTier)),
		attribute.Bool("entitlement.trial", snap.IsInTrial),
		attribute.Bool("entitlement.paid", snap.IsPaidPremium),
	)
	metrics.RecordEntitlementResolution(string(snap.EffectiveTier), false)

	return snap
}

func errOrMissing(err error) error {
	if err != nil {
		return err
	}
	return errMissingState
}
