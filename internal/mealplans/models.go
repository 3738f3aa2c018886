package mealplans

import (
	"time"

	"github.com/fdg312/nutri-coach/internal/nutrition"
)

// Слоты дневного плана, порядок важен для вывода и экспорта
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

// Slots lists the four meal slots in display order.
var Slots = []string{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// SlotLabels are the Spanish names used in prompts and exports.
var SlotLabels = map[string]string{
	SlotBreakfast: "Desayuno",
	SlotLunch:     "Almuerzo",
	SlotDinner:    "Cena",
	SlotSnack:     "Snack",
}

// CalorieTolerance is the advisory deviation allowed between the plan total
// and the target.
const CalorieTolerance = 0.10

// Meal — одно блюдо плана
type Meal struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Calories    int      `json:"calories"`
	Protein     *int     `json:"protein,omitempty"`
	Carbs       *int     `json:"carbs,omitempty"`
	Fats        *int     `json:"fats,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// DailyPlan — план на день, всегда ровно четыре слота
type DailyPlan struct {
	Breakfast Meal `json:"breakfast"`
	Lunch     Meal `json:"lunch"`
	Dinner    Meal `json:"dinner"`
	Snack     Meal `json:"snack"`
}

// Meal returns the meal stored in the given slot.
func (p DailyPlan) Meal(slot string) (Meal, bool) {
	switch slot {
	case SlotBreakfast:
		return p.Breakfast, true
	case SlotLunch:
		return p.Lunch, true
	case SlotDinner:
		return p.Dinner, true
	case SlotSnack:
		return p.Snack, true
	}
	return Meal{}, false
}

func (p DailyPlan) TotalCalories() int {
	return p.Breakfast.Calories + p.Lunch.Calories + p.Dinner.Calories + p.Snack.Calories
}

// PlanSnapshot — сохранённый план вместе с метаданными генерации
type PlanSnapshot struct {
	Plan            DailyPlan `json:"plan"`
	TargetKcal      int       `json:"target_kcal"`
	Model           string    `json:"model"`
	Locality        string    `json:"locality"`
	GeneratedAt     time.Time `json:"generated_at"`
	ProfileRevision time.Time `json:"profile_revision"`
}

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// GenerationStatus — состояние генерации для владельца
type GenerationStatus struct {
	State      State      `json:"state"`
	ErrorKind  string     `json:"error_kind,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CurrentPlanResponse — ответ GET /v1/meal-plans/current и POST generate
type CurrentPlanResponse struct {
	Plan            DailyPlan          `json:"plan"`
	TargetKcal      int                `json:"target_kcal"`
	TotalCalories   int                `json:"total_calories"`
	CaloriesDelta   int                `json:"calories_delta"`
	WithinTolerance bool               `json:"within_tolerance"`
	Model           string             `json:"model"`
	Locality        string             `json:"locality"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Stale           bool               `json:"stale"`
	Targets         *nutrition.Targets `json:"targets,omitempty"`
	Status          GenerationStatus   `json:"status"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
