package nutrition

import (
	"context"
	"time"

	"github.com/fdg312/nutri-coach/internal/profiles"
	lru "github.com/hashicorp/golang-lru/v2"
)

const targetsCacheSize = 256

type cachedTargets struct {
	revision time.Time
	targets  Targets
}

// Service computes targets for stored profiles. Results are cached per owner
// and dropped as soon as the profile revision changes.
type Service struct {
	profiles *profiles.Service
	cache    *lru.Cache[string, cachedTargets]
}

// NewService creates a new nutrition service.
func NewService(profileService *profiles.Service) (*Service, error) {
	cache, err := lru.New[string, cachedTargets](targetsCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{profiles: profileService, cache: cache}, nil
}

// ForOwner loads the owner's profile and returns its targets.
func (s *Service) ForOwner(ctx context.Context, ownerUserID string) (Targets, profiles.StoredProfile, error) {
	sp, err := s.profiles.GetForOwner(ctx, ownerUserID)
	if err != nil {
		return Targets{}, profiles.StoredProfile{}, err
	}
	t, err := s.Compute(ownerUserID, sp)
	return t, sp, err
}

// Compute returns targets for a stored profile, using the cache when the
// revision matches.
func (s *Service) Compute(ownerUserID string, sp profiles.StoredProfile) (Targets, error) {
	if c, ok := s.cache.Get(ownerUserID); ok && c.revision.Equal(sp.Revision) {
		return c.targets, nil
	}

	t, err := ComputeTargets(sp.Profile)
	if err != nil {
		return Targets{}, err
	}
	s.cache.Add(ownerUserID, cachedTargets{revision: sp.Revision, targets: t})
	return t, nil
}

// TargetsFor lets the profile handler embed targets in its response.
func (s *Service) TargetsFor(ctx context.Context, ownerUserID string, sp profiles.StoredProfile) (interface{}, error) {
	return s.Compute(ownerUserID, sp)
}
