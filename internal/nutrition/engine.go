package nutrition

import (
	"math"

	"github.com/fdg312/nutri-coach/internal/profiles"
)

// ActivityMultipliers maps activity level to the maintenance multiplier.
var ActivityMultipliers = map[profiles.ActivityLevel]float64{
	profiles.ActivitySedentary: 1.2,
	profiles.ActivityLight:     1.375,
	profiles.ActivityModerate:  1.55,
	profiles.ActivityActive:    1.725,
	profiles.ActivityAthlete:   1.9,
}

// Goal adjustments in kcal applied to maintenance.
const (
	ReduceDeficitKcal = 400
	BuildSurplusKcal  = 300
)

// Macro split: protein and fat get 30% of the target each, carbs take the rest.
const (
	proteinShare = 0.30
	fatShare     = 0.30

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// ClassifyBMI buckets a BMI value. Boundaries are half-open so every value
// has exactly one category.
func ClassifyBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// BasalRate is the Mifflin-St Jeor resting energy expenditure in kcal/day.
// Validated profiles always have a positive basal rate.
func BasalRate(p profiles.UserProfile) float64 {
	return p.BasalRate()
}

// ComputeTargets derives BMI, energy and macro targets from a profile.
// Invalid profiles are rejected with *profiles.ValidationError.
func ComputeTargets(p profiles.UserProfile) (Targets, error) {
	if err := profiles.Validate(p); err != nil {
		return Targets{}, err
	}
	goal, _ := profiles.ParseGoal(string(p.Goal))
	level, _ := profiles.ParseActivityLevel(string(p.ActivityLevel))

	heightM := p.Height / 100
	bmi := round1(p.Weight / (heightM * heightM))
	category := ClassifyBMI(bmi)

	bmr := BasalRate(p)
	maintenance := int(math.Round(bmr * ActivityMultipliers[level]))

	target := maintenance
	switch goal {
	case profiles.GoalLoseWeight:
		target -= ReduceDeficitKcal
	case profiles.GoalGainMuscle:
		target += BuildSurplusKcal
	}
	if floor := int(math.Round(bmr)); target < floor {
		target = floor
	}

	protein, carbs, fat := SplitMacros(target)

	return Targets{
		BMI:             bmi,
		BMICategory:     category,
		BMILabel:        category.Label(),
		BasalKcal:       round1(bmr),
		MaintenanceKcal: maintenance,
		TargetKcal:      target,
		ProteinG:        protein,
		CarbsG:          carbs,
		FatG:            fat,
	}, nil
}

// SplitMacros returns grams of protein, carbs and fat for a kcal target.
// Carbs are computed from the remainder so the macro energy stays within
// 2 kcal of the target.
func SplitMacros(targetKcal int) (protein, carbs, fat int) {
	t := float64(targetKcal)
	protein = int(math.Round(t * proteinShare / kcalPerGramProtein))
	fat = int(math.Round(t * fatShare / kcalPerGramFat))

	rest := targetKcal - protein*kcalPerGramProtein - fat*kcalPerGramFat
	carbs = int(math.Round(float64(rest) / kcalPerGramCarbs))
	if carbs < 0 {
		carbs = 0
	}
	return protein, carbs, fat
}

// MacroKcal is the energy carried by the macro grams.
func (t Targets) MacroKcal() int {
	return t.ProteinG*kcalPerGramProtein + t.CarbsG*kcalPerGramCarbs + t.FatG*kcalPerGramFat
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
