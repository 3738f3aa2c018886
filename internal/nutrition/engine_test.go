package nutrition

import (
	"errors"
	"testing"

	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceProfile(goal profiles.Goal) profiles.UserProfile {
	return profiles.UserProfile{
		Name:          "Juan",
		Age:           30,
		Weight:        75,
		Height:        175,
		Gender:        profiles.GenderMale,
		ActivityLevel: profiles.ActivityModerate,
		Goal:          goal,
		DietType:      profiles.DietOmnivore,
	}
}

func TestClassifyBMIBoundaries(t *testing.T) {
	tests := []struct {
		bmi  float64
		want BMICategory
	}{
		{18.49, BMIUnderweight},
		{18.5, BMINormal},
		{24.99, BMINormal},
		{25.0, BMIOverweight},
		{29.9, BMIOverweight},
		{29.95, BMIOverweight},
		{30.0, BMIObese},
		{42, BMIObese},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBMI(tt.bmi), "bmi=%v", tt.bmi)
	}
}

func TestBMICategoryLabel(t *testing.T) {
	assert.Equal(t, "Bajo Peso", BMIUnderweight.Label())
	assert.Equal(t, "Normal", BMINormal.Label())
	assert.Equal(t, "Sobrepeso", BMIOverweight.Label())
	assert.Equal(t, "Obesidad", BMIObese.Label())
}

func TestBasalRate(t *testing.T) {
	p := referenceProfile(profiles.GoalMaintain)
	assert.InDelta(t, 1721.25, BasalRate(p), 1e-9)

	p.Gender = profiles.GenderFemale
	assert.InDelta(t, 1555.25, BasalRate(p), 1e-9)
}

func TestComputeTargetsReference(t *testing.T) {
	tests := []struct {
		goal    profiles.Goal
		target  int
		protein int
		carbs   int
		fat     int
	}{
		{profiles.GoalMaintain, 2668, 200, 267, 89},
		{profiles.GoalLoseWeight, 2268, 170, 226, 76},
		{profiles.GoalGainMuscle, 2968, 223, 296, 99},
		{"reduce", 2268, 170, 226, 76},
		{"build", 2968, 223, 296, 99},
	}

	for _, tt := range tests {
		t.Run(string(tt.goal), func(t *testing.T) {
			got, err := ComputeTargets(referenceProfile(tt.goal))
			require.NoError(t, err)

			assert.Equal(t, 24.5, got.BMI)
			assert.Equal(t, BMINormal, got.BMICategory)
			assert.Equal(t, 1721.3, got.BasalKcal)
			assert.Equal(t, 2668, got.MaintenanceKcal)
			assert.Equal(t, tt.target, got.TargetKcal)
			assert.Equal(t, tt.protein, got.ProteinG)
			assert.Equal(t, tt.carbs, got.CarbsG)
			assert.Equal(t, tt.fat, got.FatG)
		})
	}
}

func TestComputeTargetsFloorsAtBasalRate(t *testing.T) {
	p := profiles.UserProfile{
		Age:           80,
		Weight:        40,
		Height:        140,
		Gender:        profiles.GenderFemale,
		ActivityLevel: profiles.ActivitySedentary,
		Goal:          profiles.GoalLoseWeight,
		DietType:      profiles.DietVegan,
	}
	// bmr = 400 + 875 - 400 - 161 = 714, maintenance 857, 857-400 < 714
	got, err := ComputeTargets(p)
	require.NoError(t, err)
	assert.Equal(t, 714, got.TargetKcal)
}

func TestMacroEnergyStaysNearTarget(t *testing.T) {
	levels := []profiles.ActivityLevel{
		profiles.ActivitySedentary, profiles.ActivityLight, profiles.ActivityModerate,
		profiles.ActivityActive, profiles.ActivityAthlete,
	}
	goals := []profiles.Goal{profiles.GoalLoseWeight, profiles.GoalMaintain, profiles.GoalGainMuscle}

	for age := 18; age <= 80; age += 7 {
		for weight := 45.0; weight <= 140; weight += 9.5 {
			for height := 145.0; height <= 205; height += 6 {
				for _, lvl := range levels {
					for _, goal := range goals {
						for _, g := range []profiles.Gender{profiles.GenderMale, profiles.GenderFemale} {
							p := profiles.UserProfile{
								Age: age, Weight: weight, Height: height, Gender: g,
								ActivityLevel: lvl, Goal: goal, DietType: profiles.DietOmnivore,
							}
							got, err := ComputeTargets(p)
							require.NoError(t, err)

							diff := got.MacroKcal() - got.TargetKcal
							if diff < -3 || diff > 3 {
								t.Fatalf("macro energy %d vs target %d for %+v", got.MacroKcal(), got.TargetKcal, p)
							}
						}
					}
				}
			}
		}
	}
}

func TestMacroEnergyAtSmallestBodies(t *testing.T) {
	goals := []profiles.Goal{profiles.GoalLoseWeight, profiles.GoalMaintain, profiles.GoalGainMuscle}

	for _, age := range []int{1, 18, 60, 100, 120} {
		for _, weight := range []float64{profiles.MinWeight, 25, 35} {
			for _, height := range []float64{profiles.MinHeight, 100, 120} {
				for _, goal := range goals {
					for _, g := range []profiles.Gender{profiles.GenderMale, profiles.GenderFemale} {
						p := profiles.UserProfile{
							Age: age, Weight: weight, Height: height, Gender: g,
							ActivityLevel: profiles.ActivitySedentary, Goal: goal, DietType: profiles.DietVegan,
						}
						got, err := ComputeTargets(p)
						if BasalRate(p) <= 0 {
							require.ErrorIs(t, err, profiles.ErrInvalidProfile, "%+v", p)
							continue
						}
						require.NoError(t, err, "%+v", p)

						assert.Positive(t, got.BasalKcal, "%+v", p)
						assert.GreaterOrEqual(t, got.TargetKcal, 0, "%+v", p)
						assert.GreaterOrEqual(t, got.ProteinG, 0)
						assert.GreaterOrEqual(t, got.CarbsG, 0)
						assert.GreaterOrEqual(t, got.FatG, 0)

						diff := got.MacroKcal() - got.TargetKcal
						if diff < -3 || diff > 3 {
							t.Fatalf("macro energy %d vs target %d for %+v", got.MacroKcal(), got.TargetKcal, p)
						}
					}
				}
			}
		}
	}
}

func TestComputeTargetsRejectsTinyProfile(t *testing.T) {
	p := profiles.UserProfile{
		Age: 100, Weight: 5, Height: 50, Gender: profiles.GenderFemale,
		ActivityLevel: profiles.ActivitySedentary, Goal: profiles.GoalMaintain, DietType: profiles.DietOmnivore,
	}
	_, err := ComputeTargets(p)
	require.ErrorIs(t, err, profiles.ErrInvalidProfile)

	// bounds pass but the basal rate is not positive
	p.Age, p.Weight, p.Height = 120, profiles.MinWeight, profiles.MinHeight
	_, err = ComputeTargets(p)
	var verr *profiles.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weight", verr.Field)
}

func TestComputeTargetsRejectsInvalidProfile(t *testing.T) {
	p := referenceProfile(profiles.GoalMaintain)
	p.Height = 0

	_, err := ComputeTargets(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, profiles.ErrInvalidProfile))

	p = referenceProfile("shred")
	_, err = ComputeTargets(p)
	var verr *profiles.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "goal", verr.Field)
}
