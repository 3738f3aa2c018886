package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/fdg312/nutri-coach/internal/userctx"
	"github.com/rs/zerolog/log"
)

var ErrProfileNotFound = errors.New("profile not found")

// PlanDiscarder удаляет текущий план, в том числе ещё генерирующийся
type PlanDiscarder interface {
	DiscardPlan(ctx context.Context, ownerUserID string) error
}

// Service хранит профиль владельца как JSON-снапшот
type Service struct {
	storage storage.Storage
	plans   PlanDiscarder
}

// NewService создаёт новый сервис
func NewService(st storage.Storage) *Service {
	return &Service{storage: st}
}

// SetPlanDiscarder routes plan removal on Reset through d. Without one the
// plan snapshot is deleted directly.
func (s *Service) SetPlanDiscarder(d PlanDiscarder) {
	s.plans = d
}

// Get возвращает профиль владельца из контекста
func (s *Service) Get(ctx context.Context) (StoredProfile, error) {
	return s.GetForOwner(ctx, userctx.OwnerID(ctx))
}

// GetForOwner возвращает профиль конкретного владельца
func (s *Service) GetForOwner(ctx context.Context, ownerUserID string) (StoredProfile, error) {
	snap, found, err := s.storage.GetSnapshot(ctx, ownerUserID, storage.KeyProfile)
	if err != nil {
		return StoredProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if !found {
		return StoredProfile{}, ErrProfileNotFound
	}

	var p UserProfile
	if err := json.Unmarshal(snap.Payload, &p); err != nil {
		return StoredProfile{}, fmt.Errorf("decode profile: %w", err)
	}

	return StoredProfile{Profile: p, Revision: snap.UpdatedAt, CreatedAt: snap.CreatedAt}, nil
}

// Put заменяет профиль целиком (онбординг или редактирование)
func (s *Service) Put(ctx context.Context, req ProfileRequest) (StoredProfile, error) {
	p, err := FromRequest(req)
	if err != nil {
		return StoredProfile{}, err
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return StoredProfile{}, fmt.Errorf("encode profile: %w", err)
	}

	ownerUserID := userctx.OwnerID(ctx)
	snap, err := s.storage.PutSnapshot(ctx, ownerUserID, storage.KeyProfile, payload)
	if err != nil {
		return StoredProfile{}, fmt.Errorf("save profile: %w", err)
	}

	log.Info().
		Str("owner", ownerUserID).
		Str("goal", string(p.Goal)).
		Str("diet", string(p.DietType)).
		Msg("profile saved")

	return StoredProfile{Profile: p, Revision: snap.UpdatedAt, CreatedAt: snap.CreatedAt}, nil
}

// Reset удаляет профиль, текущий план и историю чата владельца
func (s *Service) Reset(ctx context.Context) error {
	ownerUserID := userctx.OwnerID(ctx)

	if err := s.storage.DeleteSnapshot(ctx, ownerUserID, storage.KeyProfile); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := s.discardPlan(ctx, ownerUserID); err != nil {
		return err
	}
	if err := s.storage.Chat().DeleteMessages(ctx, ownerUserID); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}

	log.Info().Str("owner", ownerUserID).Msg("profile reset")
	return nil
}

func (s *Service) discardPlan(ctx context.Context, ownerUserID string) error {
	if s.plans != nil {
		return s.plans.DiscardPlan(ctx, ownerUserID)
	}
	if err := s.storage.DeleteSnapshot(ctx, ownerUserID, storage.KeyPlan); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}
