package mealplans

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
)

func referenceProfile() profiles.UserProfile {
	return profiles.UserProfile{
		Name:          "Ana",
		Age:           30,
		Weight:        75,
		Height:        175,
		Gender:        profiles.GenderMale,
		ActivityLevel: profiles.ActivityModerate,
		Goal:          profiles.GoalLoseWeight,
		DietType:      profiles.DietVegetarian,
	}
}

func TestBuildPlanInstruction(t *testing.T) {
	p := referenceProfile()
	targets, err := nutrition.ComputeTargets(p)
	require.NoError(t, err)

	text := BuildPlanInstruction(p, targets)

	for _, want := range []string{
		"vegetariana",
		"bajar de peso",
		"2268 kcal",
		"proteína 170 g",
		"Chile",
		"jurel en lata",
		"EVITA: salmón",
		"sin bloques de código",
		`"breakfast"`, `"lunch"`, `"dinner"`, `"snack"`,
		`"ingredients"`,
	} {
		assert.Contains(t, text, want)
	}
}

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder("AR")
	assert.Equal(t, "ar", b.Locality())

	msgs := b.Build(referenceProfile(), nutrition.Targets{TargetKcal: 2000})
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Argentina")
	assert.False(t, strings.Contains(msgs[1].Content, "Chile"))
}

func TestPolicyFor_Fallback(t *testing.T) {
	assert.Equal(t, DefaultLocality, PolicyFor("").Code)
	assert.Equal(t, DefaultLocality, PolicyFor("xx").Code)
}

func TestPlanSchema(t *testing.T) {
	s := PlanSchema()
	assert.Equal(t, ai.TypeObject, s.Type)
	assert.ElementsMatch(t, Slots, s.Required)
	for _, slot := range Slots {
		meal := s.Properties[slot]
		require.NotNil(t, meal)
		assert.Equal(t, ai.TypeArray, meal.Properties["ingredients"].Type)
	}
}
