package mealplans

import "strings"

// DefaultLocality is used when PLAN_LOCALITY is empty or unknown.
const DefaultLocality = "cl"

// LocalityPolicy describes which ingredients a plan should prefer or avoid
// for a market.
type LocalityPolicy struct {
	Code    string
	Region  string
	Markets string
	Prefer  []string
	Avoid   []string
	Style   string
}

// LocalityPolicies is the table of supported markets keyed by code.
var LocalityPolicies = map[string]LocalityPolicy{
	"cl": {
		Code:    "cl",
		Region:  "Chile",
		Markets: "supermercados o ferias de Chile",
		Prefer: []string{
			"pollo", "pavo", "carne molida baja en grasa", "jurel en lata", "atún", "huevos",
			"lentejas", "porotos", "garbanzos", "arroz", "fideos", "papas", "avena",
			"pan marraqueta o hallulla integral", "manzana", "plátano", "naranja",
			"lechuga", "tomate", "zanahoria", "zapallo",
		},
		Avoid: []string{
			"salmón", "camarones", "cortes de carne caros", "frutas exóticas",
			"ingredientes difíciles de encontrar",
		},
		Style: "cocina casera, simple y rica",
	},
	"ar": {
		Code:    "ar",
		Region:  "Argentina",
		Markets: "supermercados, verdulerías o almacenes de barrio de Argentina",
		Prefer: []string{
			"pollo", "carne picada magra", "huevos", "lentejas", "garbanzos", "arroz",
			"fideos", "papas", "batata", "avena", "pan integral", "manzana", "banana",
			"mandarina", "lechuga", "tomate", "zanahoria", "zapallo", "acelga",
		},
		Avoid: []string{
			"salmón", "mariscos", "cortes premium", "frutas importadas",
			"productos dietéticos caros",
		},
		Style: "cocina casera y económica",
	},
}

// PolicyFor returns the policy for code, falling back to DefaultLocality.
func PolicyFor(code string) LocalityPolicy {
	if p, ok := LocalityPolicies[strings.ToLower(strings.TrimSpace(code))]; ok {
		return p
	}
	return LocalityPolicies[DefaultLocality]
}
