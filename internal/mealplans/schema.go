package mealplans

import "github.com/fdg312/nutri-coach/internal/ai"

// PlanSchema describes the four-slot plan for providers with structured
// output.
func PlanSchema() *ai.Schema {
	properties := make(map[string]*ai.Schema, len(Slots))
	for _, slot := range Slots {
		properties[slot] = mealSchema(SlotLabels[slot])
	}
	return &ai.Schema{
		Type:       ai.TypeObject,
		Properties: properties,
		Required:   append([]string(nil), Slots...),
	}
}

func mealSchema(label string) *ai.Schema {
	return &ai.Schema{
		Type:        ai.TypeObject,
		Description: label,
		Properties: map[string]*ai.Schema{
			"name":        {Type: ai.TypeString, Description: "Nombre del plato"},
			"description": {Type: ai.TypeString, Description: "Preparación breve"},
			"calories":    {Type: ai.TypeInteger, Description: "Calorías (kcal)"},
			"protein":     {Type: ai.TypeInteger, Description: "Proteína (g)"},
			"carbs":       {Type: ai.TypeInteger, Description: "Carbohidratos (g)"},
			"fats":        {Type: ai.TypeInteger, Description: "Grasas (g)"},
			"ingredients": {
				Type:  ai.TypeArray,
				Items: &ai.Schema{Type: ai.TypeString},
			},
		},
		Required: []string{"name", "description", "calories", "protein", "carbs", "fats", "ingredients"},
	}
}
