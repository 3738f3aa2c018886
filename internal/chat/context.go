package chat

import (
	"fmt"
	"strings"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/mealplans"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FallbackReply is stored as the assistant turn when the model call fails.
const FallbackReply = "Error de conexión. Verifica tu conexión."

// Turn is one message of the conversation.
type Turn struct {
	Role string
	Text string
}

var goalNames = map[profiles.Goal]string{
	profiles.GoalLoseWeight: "bajar de peso",
	profiles.GoalMaintain:   "mantener el peso",
	profiles.GoalGainMuscle: "ganar masa muscular",
}

// ContextBuilder grounds the conversation in the profile and a locality.
type ContextBuilder struct {
	policy mealplans.LocalityPolicy
}

func NewContextBuilder(locality string) *ContextBuilder {
	return &ContextBuilder{policy: mealplans.PolicyFor(locality)}
}

// Grounding renders the synthetic system turn.
func (b *ContextBuilder) Grounding(p profiles.UserProfile, t nutrition.Targets) string {
	goal, ok := goalNames[p.Goal]
	if !ok {
		goal = string(p.Goal)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Usuario"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Eres un nutricionista experto enfocado en %s.\n", b.policy.Region)
	fmt.Fprintf(&sb, "Usuario: %s, %d años. Objetivo: %s.\n", name, p.Age, goal)
	fmt.Fprintf(&sb, "Calorías diarias: %d kcal (proteína %d g, carbohidratos %d g, grasas %d g).\n",
		t.TargetKcal, t.ProteinG, t.CarbsG, t.FatG)
	fmt.Fprintf(&sb, "Recomienda alimentos accesibles y económicos en %s, por ejemplo: %s.\n",
		b.policy.Markets, strings.Join(b.policy.Prefer[:min(6, len(b.policy.Prefer))], ", "))
	sb.WriteString("Responde de forma corta, motivadora y útil.")
	return sb.String()
}

// Build returns the grounding turn, the full prior history and the new turn.
func (b *ContextBuilder) Build(p profiles.UserProfile, t nutrition.Targets, history []Turn, turn Turn) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: b.Grounding(p, t)})
	for _, h := range history {
		msgs = append(msgs, ai.Message{Role: aiRole(h.Role), Content: h.Text})
	}
	msgs = append(msgs, ai.Message{Role: aiRole(turn.Role), Content: turn.Text})
	return msgs
}

// BuildContext grounds with the default locality.
func BuildContext(p profiles.UserProfile, t nutrition.Targets, history []Turn, turn Turn) []ai.Message {
	return NewContextBuilder(mealplans.DefaultLocality).Build(p, t, history, turn)
}

// AppendTurn returns a new history with turn appended. history is not
// modified.
func AppendTurn(history []Turn, turn Turn) []Turn {
	out := make([]Turn, len(history), len(history)+1)
	copy(out, history)
	return append(out, turn)
}

// RecoverFromFailure appends the fallback assistant turn after a failed
// model call. The user turn that triggered the call stays in place.
func RecoverFromFailure(history []Turn) []Turn {
	return AppendTurn(history, Turn{Role: RoleAssistant, Text: FallbackReply})
}

func aiRole(role string) string {
	if role == RoleAssistant {
		return ai.RoleAssistant
	}
	return ai.RoleUser
}
