package mealplans

import (
	"fmt"
	"strings"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
)

const plannerSystemPrompt = "Eres un nutricionista experto. Respondes únicamente con JSON válido."

var dietLabels = map[profiles.DietType]string{
	profiles.DietOmnivore:   "omnívora",
	profiles.DietVegetarian: "vegetariana (sin carne ni pescado)",
	profiles.DietVegan:      "vegana (sin ningún producto de origen animal)",
	profiles.DietKeto:       "cetogénica (muy baja en carbohidratos)",
}

var goalLabels = map[profiles.Goal]string{
	profiles.GoalLoseWeight: "bajar de peso",
	profiles.GoalMaintain:   "mantener el peso",
	profiles.GoalGainMuscle: "ganar masa muscular",
}

// PromptBuilder renders plan instructions for one locality.
type PromptBuilder struct {
	policy LocalityPolicy
}

func NewPromptBuilder(locality string) *PromptBuilder {
	return &PromptBuilder{policy: PolicyFor(locality)}
}

func (b *PromptBuilder) Locality() string {
	return b.policy.Code
}

// Build returns the messages for a plan request.
func (b *PromptBuilder) Build(p profiles.UserProfile, t nutrition.Targets) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: plannerSystemPrompt},
		{Role: ai.RoleUser, Content: b.Instruction(p, t)},
	}
}

// Instruction renders the plan request text.
func (b *PromptBuilder) Instruction(p profiles.UserProfile, t nutrition.Targets) string {
	var sb strings.Builder

	sb.WriteString("Crea un plan de alimentación de 1 día (Desayuno, Almuerzo, Cena, Snack).\n")
	fmt.Fprintf(&sb, "Dieta: %s. Objetivo: %s.\n", label(dietLabels, p.DietType), label(goalLabels, p.Goal))
	fmt.Fprintf(&sb, "Calorías totales objetivo: %d kcal.\n", t.TargetKcal)
	fmt.Fprintf(&sb, "Macros objetivo: proteína %d g, carbohidratos %d g, grasas %d g.\n", t.ProteinG, t.CarbsG, t.FatG)

	fmt.Fprintf(&sb, "\nCONTEXTO LOCAL: %s.\n", b.policy.Region)
	fmt.Fprintf(&sb, "INGREDIENTES: usa exclusivamente ingredientes económicos y muy comunes en %s.\n", b.policy.Markets)
	fmt.Fprintf(&sb, "- Prioriza: %s.\n", strings.Join(b.policy.Prefer, ", "))
	fmt.Fprintf(&sb, "- EVITA: %s.\n", strings.Join(b.policy.Avoid, ", "))
	fmt.Fprintf(&sb, "- Estilo: %s.\n", b.policy.Style)

	sb.WriteString("\nDevuelve SOLO un objeto JSON con esta estructura exacta, sin texto extra y sin bloques de código:\n")
	sb.WriteString("{\n")
	for i, slot := range Slots {
		fmt.Fprintf(&sb, `  "%s": { "name": "", "description": "", "calories": 0, "protein": 0, "carbs": 0, "fats": 0, "ingredients": [""] }`, slot)
		if i < len(Slots)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	fmt.Fprintf(&sb, "Los números son enteros. Asegúrate de que la suma de calorías sea aproximadamente %d.", t.TargetKcal)

	return sb.String()
}

// BuildPlanInstruction renders the instruction with the default locality.
func BuildPlanInstruction(p profiles.UserProfile, t nutrition.Targets) string {
	return NewPromptBuilder(DefaultLocality).Instruction(p, t)
}

func label[K comparable](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return fmt.Sprint(k)
}
