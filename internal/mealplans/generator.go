package mealplans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/storage"
)

var (
	// ErrGenerationInProgress is returned when a plan for the same owner is
	// already being generated.
	ErrGenerationInProgress = errors.New("plan generation already in progress")
	// ErrPlanDiscarded is returned when the plan was discarded (profile
	// reset or plan delete) while the request was in flight.
	ErrPlanDiscarded = errors.New("plan discarded during generation")
	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("plan generation failed")
)

// GenerationError wraps a model or transport failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "plan generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// Error kinds recorded in GenerationStatus.
const (
	ErrorKindGeneration = "generation_failed"
	ErrorKindMalformed  = "malformed_plan"
	ErrorKindStorage    = "storage_failed"
)

// statusMessages are the client-facing texts for each error kind. Raw errors
// stay in the logs: transport errors may carry endpoints and credentials.
var statusMessages = map[string]string{
	ErrorKindGeneration: "The model request failed",
	ErrorKindMalformed:  "The model returned an invalid plan",
	ErrorKindStorage:    "The plan could not be saved",
}

// Generator runs builder → model → parser → store with at most one request
// in flight per owner. The stored plan is written only by the in-flight
// request and is left untouched on failure.
type Generator struct {
	provider ai.Provider
	store    storage.SnapshotStorage
	builder  *PromptBuilder
	now      func() time.Time

	mu     sync.Mutex
	states map[string]GenerationStatus

	// planMu serializes plan writes with DiscardPlan; epochs counts discards
	// per owner so a stale request never stores its result.
	planMu sync.Mutex
	epochs map[string]uint64
}

func NewGenerator(provider ai.Provider, store storage.SnapshotStorage, builder *PromptBuilder) *Generator {
	return &Generator{
		provider: provider,
		store:    store,
		builder:  builder,
		now:      time.Now,
		states:   make(map[string]GenerationStatus),
		epochs:   make(map[string]uint64),
	}
}

// Status returns the owner's generation state; idle if nothing ran yet.
func (g *Generator) Status(ownerUserID string) GenerationStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[ownerUserID]
	if !ok {
		return GenerationStatus{State: StateIdle}
	}
	return st
}

// reset forgets the owner's state unless a request is in flight.
func (g *Generator) reset(ownerUserID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.states[ownerUserID].State != StateRequesting {
		delete(g.states, ownerUserID)
	}
}

func (g *Generator) begin(ownerUserID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.states[ownerUserID].State == StateRequesting {
		return ErrGenerationInProgress
	}
	started := g.now().UTC()
	g.states[ownerUserID] = GenerationStatus{State: StateRequesting, StartedAt: &started}
	return nil
}

func (g *Generator) finish(ownerUserID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.states[ownerUserID]
	finished := g.now().UTC()
	st.FinishedAt = &finished
	st.State = StateSuccess
	st.ErrorKind = ""
	st.Error = ""

	if errors.Is(err, ErrPlanDiscarded) {
		delete(g.states, ownerUserID)
		return
	}

	if err != nil {
		st.State = StateFailed
		switch {
		case errors.Is(err, ErrMalformedPlan):
			st.ErrorKind = ErrorKindMalformed
		case errors.Is(err, ErrGeneration):
			st.ErrorKind = ErrorKindGeneration
		default:
			st.ErrorKind = ErrorKindStorage
		}
		st.Error = statusMessages[st.ErrorKind]
	}
	g.states[ownerUserID] = st
}

// Generate requests a new plan for sp and stores it. A second call for the
// same owner while one is running returns ErrGenerationInProgress.
func (g *Generator) Generate(ctx context.Context, ownerUserID string, sp profiles.StoredProfile, targets nutrition.Targets) (*PlanSnapshot, error) {
	return g.generate(ctx, ownerUserID, g.epoch(ownerUserID), sp, targets)
}

// generate stores the result only if no discard happened since epoch was read.
func (g *Generator) generate(ctx context.Context, ownerUserID string, epoch uint64, sp profiles.StoredProfile, targets nutrition.Targets) (*PlanSnapshot, error) {
	if err := g.begin(ownerUserID); err != nil {
		return nil, err
	}

	snap, err := g.run(ctx, ownerUserID, epoch, sp, targets)
	g.finish(ownerUserID, err)

	if errors.Is(err, ErrPlanDiscarded) {
		log.Info().Str("owner", ownerUserID).Msg("meal plan discarded during generation")
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Str("owner", ownerUserID).Msg("meal plan generation failed")
		return nil, err
	}

	log.Info().
		Str("owner", ownerUserID).
		Str("model", snap.Model).
		Int("target_kcal", snap.TargetKcal).
		Int("total_kcal", snap.Plan.TotalCalories()).
		Msg("meal plan generated")

	return snap, nil
}

func (g *Generator) run(ctx context.Context, ownerUserID string, epoch uint64, sp profiles.StoredProfile, targets nutrition.Targets) (*PlanSnapshot, error) {
	resp, err := g.provider.Generate(ctx, ai.Request{
		Messages: g.builder.Build(sp.Profile, targets),
		JSON:     true,
		Schema:   PlanSchema(),
		Purpose:  ai.PurposeMealPlan,
		Metadata: map[string]string{
			"target_kcal": strconv.Itoa(targets.TargetKcal),
			"locality":    g.builder.Locality(),
			"diet_type":   string(sp.Profile.DietType),
		},
	})
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	plan, err := ParsePlan(resp.Text)
	if err != nil {
		return nil, err
	}

	snap := &PlanSnapshot{
		Plan:            plan,
		TargetKcal:      targets.TargetKcal,
		Model:           resp.Model,
		Locality:        g.builder.Locality(),
		GeneratedAt:     g.now().UTC(),
		ProfileRevision: sp.Revision,
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	if err := g.commit(ctx, ownerUserID, epoch, payload); err != nil {
		return nil, err
	}

	return snap, nil
}

func (g *Generator) epoch(ownerUserID string) uint64 {
	g.planMu.Lock()
	defer g.planMu.Unlock()
	return g.epochs[ownerUserID]
}

func (g *Generator) commit(ctx context.Context, ownerUserID string, epoch uint64, payload []byte) error {
	g.planMu.Lock()
	defer g.planMu.Unlock()

	if g.epochs[ownerUserID] != epoch {
		return ErrPlanDiscarded
	}
	if _, err := g.store.PutSnapshot(ctx, ownerUserID, storage.KeyPlan, payload); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

// DiscardPlan deletes the owner's plan. A request already in flight keeps
// running but its result is dropped.
func (g *Generator) DiscardPlan(ctx context.Context, ownerUserID string) error {
	g.planMu.Lock()
	g.epochs[ownerUserID]++
	err := g.store.DeleteSnapshot(ctx, ownerUserID, storage.KeyPlan)
	g.planMu.Unlock()

	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	g.reset(ownerUserID)
	return nil
}

// Current loads the stored plan. found=false if there is none.
func (g *Generator) Current(ctx context.Context, ownerUserID string) (*PlanSnapshot, bool, error) {
	raw, found, err := g.store.GetSnapshot(ctx, ownerUserID, storage.KeyPlan)
	if err != nil {
		return nil, false, fmt.Errorf("load plan: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var snap PlanSnapshot
	if err := json.Unmarshal(raw.Payload, &snap); err != nil {
		return nil, false, fmt.Errorf("decode plan: %w", err)
	}
	return &snap, true, nil
}
