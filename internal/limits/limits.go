// AngelaMos | 2026
// limits.go

// Package limits holds the static per-tier quota table and the admission
// check used before creating one more of something inside a wedding.
package limits

import (
	"errors"
	"fmt"
	"strings"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

type Feature string

const (
	FeatureGuests         Feature = "guests"
	FeatureBudgetItems    Feature = "budget_items"
	FeatureVendors        Feature = "vendors"
	FeatureEvents         Feature = "events"
	FeatureChecklistItems Feature = "checklist_items"
	FeatureCollaborators  Feature = "collaborators"
)

// Unlimited marks a quota with no upper bound.
const Unlimited int64 = -1

var (
	ErrUnknownFeature = errors.New("unknown feature")
	ErrUnknownTier    = errors.New("unknown tier")
	ErrLimitReached   = errors.New("plan limit reached")
)

// ExceededError reports a refused create action and the quota it hit.
type ExceededError struct {
	Tier    Tier
	Feature Feature
	Quota   int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf(
		"%s plan allows %s %s",
		e.Tier, Describe(e.Quota), humanize(e.Feature),
	)
}

func (e *ExceededError) Unwrap() error {
	return ErrLimitReached
}

// Check is CheckLimit returning an *ExceededError on refusal.
func Check(tier Tier, feature Feature, currentCount int64) error {
	if CheckLimit(tier, feature, currentCount) {
		return nil
	}
	//nolint:errcheck // CheckLimit already panicked on an unknown feature
	quota, _ := Quota(tierOrFree(tier), feature)
	return &ExceededError{Tier: tierOrFree(tier), Feature: feature, Quota: quota}
}

func tierOrFree(t Tier) Tier {
	if t.Valid() {
		return t
	}
	return TierFree
}

func humanize(f Feature) string {
	return strings.ReplaceAll(string(f), "_", " ")
}

var allFeatures = []Feature{
	FeatureGuests,
	FeatureBudgetItems,
	FeatureVendors,
	FeatureEvents,
	FeatureChecklistItems,
	FeatureCollaborators,
}

var freeQuotas = map[Feature]int64{
	FeatureGuests:         1000,
	FeatureBudgetItems:    100,
	FeatureVendors:        25,
	FeatureEvents:         5,
	FeatureChecklistItems: 200,
	FeatureCollaborators:  2,
}

func Features() []Feature {
	out := make([]Feature, len(allFeatures))
	copy(out, allFeatures)
	return out
}

func (f Feature) Valid() bool {
	_, ok := freeQuotas[f]
	return ok
}

func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// ParseFeature validates a feature name coming from outside the process.
func ParseFeature(s string) (Feature, error) {
	f := Feature(s)
	if !f.Valid() {
		return "", fmt.Errorf("parse feature %q: %w", s, ErrUnknownFeature)
	}
	return f, nil
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("parse tier %q: %w", s, ErrUnknownTier)
	}
	return t, nil
}

// Quota returns the maximum count of feature allowed on tier, or Unlimited.
func Quota(tier Tier, feature Feature) (int64, error) {
	limit, ok := freeQuotas[feature]
	if !ok {
		return 0, fmt.Errorf("quota %q: %w", feature, ErrUnknownFeature)
	}

	switch tier {
	case TierPremium:
		return Unlimited, nil
	case TierFree:
		return limit, nil
	default:
		return 0, fmt.Errorf("quota %q: %w", tier, ErrUnknownTier)
	}
}

// CheckLimit reports whether one more item may be created when currentCount
// already exist. Feature names are a closed set, so an unknown one is a bug
// in the caller and panics. An unknown tier is checked as free.
func CheckLimit(tier Tier, feature Feature, currentCount int64) bool {
	if !feature.Valid() {
		panic(fmt.Sprintf("limits: unknown feature %q", feature))
	}

	//nolint:errcheck // tier and feature are validated here
	limit, _ := Quota(tierOrFree(tier), feature)
	if limit == Unlimited {
		return true
	}

	return currentCount < limit
}

// Quotas returns the full table for tier. The map is a copy.
func Quotas(tier Tier) map[Feature]int64 {
	out := make(map[Feature]int64, len(allFeatures))
	for _, f := range allFeatures {
		if tier == TierPremium {
			out[f] = Unlimited
			continue
		}
		out[f] = freeQuotas[f]
	}
	return out
}

// Describe renders a quota for user-facing messages.
func Describe(limit int64) string {
	if limit == Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", limit)
}
