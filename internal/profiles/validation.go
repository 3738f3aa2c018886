package profiles

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidProfile matches every *ValidationError.
var ErrInvalidProfile = errors.New("invalid profile")

// ValidationError describes the first offending profile field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidProfile
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ParseGender accepts the canonical values, case-insensitive.
func ParseGender(raw string) (Gender, bool) {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	}
	return "", false
}

func ParseActivityLevel(raw string) (ActivityLevel, bool) {
	lvl := ActivityLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch lvl {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityAthlete:
		return lvl, true
	}
	return "", false
}

// ParseGoal also accepts the aliases "reduce" and "build".
func ParseGoal(raw string) (Goal, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(GoalLoseWeight), "reduce":
		return GoalLoseWeight, true
	case string(GoalMaintain):
		return GoalMaintain, true
	case string(GoalGainMuscle), "build":
		return GoalGainMuscle, true
	}
	return "", false
}

func ParseDietType(raw string) (DietType, bool) {
	d := DietType(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case DietOmnivore, DietVegetarian, DietVegan, DietKeto:
		return d, true
	}
	return "", false
}

// Validate checks ranges and enum membership.
func Validate(p UserProfile) error {
	if p.Age <= 0 || p.Age > 120 {
		return invalid("age", "must be between 1 and 120")
	}
	if !(p.Weight >= MinWeight) || p.Weight > MaxWeight || math.IsInf(p.Weight, 0) {
		return invalid("weight", fmt.Sprintf("must be between %g and %g kg", MinWeight, MaxWeight))
	}
	if !(p.Height >= MinHeight) || p.Height > MaxHeight || math.IsInf(p.Height, 0) {
		return invalid("height", fmt.Sprintf("must be between %g and %g cm", MinHeight, MaxHeight))
	}
	if _, ok := ParseGender(string(p.Gender)); !ok {
		return invalid("gender", "must be male or female")
	}
	// every energy target is floored at the basal rate
	if p.BasalRate() <= 0 {
		return invalid("weight", "is too low for this age and height")
	}
	if _, ok := ParseActivityLevel(string(p.ActivityLevel)); !ok {
		return invalid("activity_level", "is not a known activity level")
	}
	if _, ok := ParseGoal(string(p.Goal)); !ok {
		return invalid("goal", "is not a known goal")
	}
	if _, ok := ParseDietType(string(p.DietType)); !ok {
		return invalid("diet_type", "is not a known diet type")
	}
	if len(p.Name) > 100 {
		return invalid("name", "is too long")
	}
	return nil
}

// FromRequest applies onboarding defaults to blank fields and validates
// the result.
func FromRequest(req ProfileRequest) (UserProfile, error) {
	p := UserProfile{
		Name:          strings.TrimSpace(req.Name),
		Age:           DefaultAge,
		Weight:        DefaultWeight,
		Height:        DefaultHeight,
		Gender:        GenderMale,
		ActivityLevel: ActivityModerate,
		Goal:          GoalMaintain,
		DietType:      DietOmnivore,
	}

	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Weight != nil {
		p.Weight = *req.Weight
	}
	if req.Height != nil {
		p.Height = *req.Height
	}

	if strings.TrimSpace(req.Gender) != "" {
		g, ok := ParseGender(req.Gender)
		if !ok {
			return UserProfile{}, invalid("gender", "must be male or female")
		}
		p.Gender = g
	}
	if strings.TrimSpace(req.ActivityLevel) != "" {
		lvl, ok := ParseActivityLevel(req.ActivityLevel)
		if !ok {
			return UserProfile{}, invalid("activity_level", "is not a known activity level")
		}
		p.ActivityLevel = lvl
	}
	if strings.TrimSpace(req.Goal) != "" {
		g, ok := ParseGoal(req.Goal)
		if !ok {
			return UserProfile{}, invalid("goal", "is not a known goal")
		}
		p.Goal = g
	}
	if strings.TrimSpace(req.DietType) != "" {
		d, ok := ParseDietType(req.DietType)
		if !ok {
			return UserProfile{}, invalid("diet_type", "is not a known diet type")
		}
		p.DietType = d
	}

	if err := Validate(p); err != nil {
		return UserProfile{}, err
	}
	return p, nil
}
