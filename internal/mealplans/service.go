package mealplans

import (
	"context"
	"errors"
	"math"

	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/userctx"
)

var ErrPlanNotFound = errors.New("meal plan not found")

// Service exposes the current plan of the owner in the request context.
type Service struct {
	targets   *nutrition.Service
	generator *Generator
}

// NewService creates a new meal plans service.
func NewService(targets *nutrition.Service, generator *Generator) *Service {
	return &Service{targets: targets, generator: generator}
}

// Generate computes targets for the stored profile and requests a new plan.
func (s *Service) Generate(ctx context.Context) (CurrentPlanResponse, error) {
	owner := userctx.OwnerID(ctx)

	// read before the profile so a reset racing this call is caught too
	epoch := s.generator.epoch(owner)

	targets, sp, err := s.targets.ForOwner(ctx, owner)
	if err != nil {
		return CurrentPlanResponse{}, err
	}

	snap, err := s.generator.generate(ctx, owner, epoch, sp, targets)
	if err != nil {
		return CurrentPlanResponse{}, err
	}

	return s.response(snap, &sp, &targets, s.generator.Status(owner)), nil
}

// Current returns the stored plan with the advisory calorie check.
func (s *Service) Current(ctx context.Context) (CurrentPlanResponse, error) {
	owner := userctx.OwnerID(ctx)

	snap, found, err := s.generator.Current(ctx, owner)
	if err != nil {
		return CurrentPlanResponse{}, err
	}
	if !found {
		return CurrentPlanResponse{}, ErrPlanNotFound
	}

	targets, sp, err := s.targets.ForOwner(ctx, owner)
	switch {
	case err == nil:
		return s.response(snap, &sp, &targets, s.generator.Status(owner)), nil
	case errors.Is(err, profiles.ErrProfileNotFound), errors.Is(err, profiles.ErrInvalidProfile):
		return s.response(snap, nil, nil, s.generator.Status(owner)), nil
	default:
		return CurrentPlanResponse{}, err
	}
}

func (s *Service) Status(ctx context.Context) GenerationStatus {
	return s.generator.Status(userctx.OwnerID(ctx))
}

// Delete drops the current plan, including one still being generated.
func (s *Service) Delete(ctx context.Context) error {
	return s.generator.DiscardPlan(ctx, userctx.OwnerID(ctx))
}

func (s *Service) response(snap *PlanSnapshot, sp *profiles.StoredProfile, targets *nutrition.Targets, status GenerationStatus) CurrentPlanResponse {
	total := snap.Plan.TotalCalories()
	resp := CurrentPlanResponse{
		Plan:            snap.Plan,
		TargetKcal:      snap.TargetKcal,
		TotalCalories:   total,
		CaloriesDelta:   total - snap.TargetKcal,
		WithinTolerance: WithinTolerance(total, snap.TargetKcal),
		Model:           snap.Model,
		Locality:        snap.Locality,
		GeneratedAt:     snap.GeneratedAt,
		Targets:         targets,
		Status:          status,
		Stale:           true,
	}
	if sp != nil {
		resp.Stale = !sp.Revision.Equal(snap.ProfileRevision)
	}
	return resp
}

// WithinTolerance reports whether total is within CalorieTolerance of target.
func WithinTolerance(total, target int) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(float64(total-target)) <= CalorieTolerance*float64(target)
}
