package chat

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
)

func testProfile() profiles.UserProfile {
	return profiles.UserProfile{
		Name:          "Camila",
		Age:           28,
		Weight:        62,
		Height:        165,
		Gender:        profiles.GenderFemale,
		ActivityLevel: profiles.ActivityLight,
		Goal:          profiles.GoalLoseWeight,
		DietType:      profiles.DietOmnivore,
	}
}

func TestBuildContext(t *testing.T) {
	p := testProfile()
	targets, err := nutrition.ComputeTargets(p)
	require.NoError(t, err)

	history := []Turn{
		{Role: RoleUser, Text: "hola"},
		{Role: RoleAssistant, Text: "¡Hola Camila!"},
	}
	msgs := BuildContext(p, targets, history, Turn{Role: RoleUser, Text: "¿qué ceno?"})

	require.Len(t, msgs, 4)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	for _, want := range []string{"Camila", "28 años", "bajar de peso", "Chile", "corta, motivadora"} {
		assert.Contains(t, msgs[0].Content, want)
	}
	assert.Contains(t, msgs[0].Content, strconv.Itoa(targets.TargetKcal)+" kcal")

	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "hola"}, msgs[1])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "¡Hola Camila!"}, msgs[2])
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "¿qué ceno?"}, msgs[3])
}

func TestAppendTurn_IsPure(t *testing.T) {
	history := make([]Turn, 1, 4)
	history[0] = Turn{Role: RoleUser, Text: "a"}

	next := AppendTurn(history, Turn{Role: RoleAssistant, Text: "b"})
	other := AppendTurn(history, Turn{Role: RoleAssistant, Text: "c"})

	assert.Len(t, history, 1)
	assert.Equal(t, "b", next[1].Text)
	assert.Equal(t, "c", other[1].Text)
}

func TestRecoverFromFailure_HistoryIntegrity(t *testing.T) {
	for n := 0; n <= 5; n++ {
		var history []Turn
		for i := 0; i < n; i++ {
			history = AppendTurn(history, Turn{Role: RoleUser, Text: "pregunta"})
			history = AppendTurn(history, Turn{Role: RoleAssistant, Text: "respuesta"})
		}

		history = AppendTurn(history, Turn{Role: RoleUser, Text: "falla"})
		history = RecoverFromFailure(history)

		require.Len(t, history, 2*n+2)
		assertAlternates(t, history)
		assert.Equal(t, "falla", history[len(history)-2].Text)
		assert.Equal(t, FallbackReply, history[len(history)-1].Text)
	}
}

func assertAlternates(t *testing.T, turns []Turn) {
	t.Helper()
	for i, turn := range turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
}
