package profiles

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityActive    ActivityLevel = "active"
	ActivityAthlete   ActivityLevel = "athlete"
)

type Goal string

const (
	GoalLoseWeight Goal = "lose_weight"
	GoalMaintain   Goal = "maintain"
	GoalGainMuscle Goal = "gain_muscle"
)

type DietType string

const (
	DietOmnivore   DietType = "omnivore"
	DietVegetarian DietType = "vegetarian"
	DietVegan      DietType = "vegan"
	DietKeto       DietType = "keto"
)

// Значения по умолчанию для онбординга
const (
	DefaultAge    = 30
	DefaultWeight = 75.0
	DefaultHeight = 170.0
)

// Допустимые диапазоны антропометрии
const (
	MinWeight = 20.0
	MaxWeight = 500.0
	MinHeight = 80.0
	MaxHeight = 300.0
)

// UserProfile — профиль пользователя, заменяется только целиком
type UserProfile struct {
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	Weight        float64       `json:"weight"` // kg
	Height        float64       `json:"height"` // cm
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
	DietType      DietType      `json:"diet_type"`
}

// BasalRate is the Mifflin-St Jeor resting energy expenditure in kcal/day.
func (p UserProfile) BasalRate() float64 {
	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if g, _ := ParseGender(string(p.Gender)); g == GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// StoredProfile — профиль вместе с ревизией снапшота.
// Revision меняется при каждой записи профиля.
type StoredProfile struct {
	Profile   UserProfile
	Revision  time.Time
	CreatedAt time.Time
}

// ProfileRequest — тело PUT /v1/profile.
// Пустые поля получают значения по умолчанию.
type ProfileRequest struct {
	Name          string   `json:"name"`
	Age           *int     `json:"age"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	Gender        string   `json:"gender"`
	ActivityLevel string   `json:"activity_level"`
	Goal          string   `json:"goal"`
	DietType      string   `json:"diet_type"`
}

// ProfileResponse — ответ GET/PUT /v1/profile
type ProfileResponse struct {
	Profile   UserProfile `json:"profile"`
	UpdatedAt time.Time   `json:"updated_at"`
	Targets   interface{} `json:"targets,omitempty"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
