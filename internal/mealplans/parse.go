package mealplans

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedPlan matches every *MalformedPlanError.
var ErrMalformedPlan = errors.New("malformed plan")

// MalformedPlanError reports why a model response could not be used as a plan.
type MalformedPlanError struct {
	Reason string
	Raw    string
}

func (e *MalformedPlanError) Error() string {
	return "malformed plan: " + e.Reason
}

func (e *MalformedPlanError) Is(target error) bool {
	return target == ErrMalformedPlan
}

func malformed(raw, format string, args ...interface{}) error {
	return &MalformedPlanError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// ParsePlan extracts and validates a DailyPlan from raw model output. Code
// fences and surrounding prose are tolerated; anything short of four valid
// slots is rejected as a whole.
func ParsePlan(raw string) (DailyPlan, error) {
	body := extractObject(raw)
	if body == "" {
		return DailyPlan{}, malformed(raw, "no JSON object found")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var top map[string]json.RawMessage
	if err := dec.Decode(&top); err != nil {
		return DailyPlan{}, malformed(raw, "invalid JSON: %v", err)
	}

	var plan DailyPlan
	for _, slot := range Slots {
		rawMeal, ok := top[slot]
		if !ok || isNull(rawMeal) {
			return DailyPlan{}, malformed(raw, "missing slot %q", slot)
		}
		meal, err := parseMeal(rawMeal)
		if err != nil {
			return DailyPlan{}, malformed(raw, "%s: %v", slot, err)
		}
		switch slot {
		case SlotBreakfast:
			plan.Breakfast = meal
		case SlotLunch:
			plan.Lunch = meal
		case SlotDinner:
			plan.Dinner = meal
		case SlotSnack:
			plan.Snack = meal
		}
	}

	return plan, nil
}

// extractObject strips code fences and slices from the first '{' to the
// last '}'.
func extractObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func parseMeal(raw json.RawMessage) (Meal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return Meal{}, errors.New("slot is not an object")
	}

	var m Meal

	name, ok := fields["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Meal{}, errors.New("name must be a non-empty string")
	}
	m.Name = strings.TrimSpace(name)

	if v, present := fields["description"]; present && v != nil {
		desc, ok := v.(string)
		if !ok {
			return Meal{}, errors.New("description must be a string")
		}
		m.Description = strings.TrimSpace(desc)
	}

	calories, present, err := nonNegative(fields, "calories")
	if err != nil {
		return Meal{}, err
	}
	if !present {
		return Meal{}, errors.New("calories is required")
	}
	m.Calories = calories

	for _, macro := range []struct {
		key string
		dst **int
	}{
		{"protein", &m.Protein},
		{"carbs", &m.Carbs},
		{"fats", &m.Fats},
	} {
		v, present, err := nonNegative(fields, macro.key)
		if err != nil {
			return Meal{}, err
		}
		if present {
			v := v
			*macro.dst = &v
		}
	}

	if v, present := fields["ingredients"]; present && v != nil {
		list, ok := v.([]interface{})
		if !ok {
			return Meal{}, errors.New("ingredients must be an array of strings")
		}
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return Meal{}, fmt.Errorf("ingredients[%d] must be a string", i)
			}
			if s = strings.TrimSpace(s); s != "" {
				m.Ingredients = append(m.Ingredients, s)
			}
		}
	}

	return m, nil
}

// maxNutrientValue caps calories and macro grams of a single meal.
const maxNutrientValue = 20000

// nonNegative reads an optional whole-number field in [0, maxNutrientValue].
func nonNegative(fields map[string]interface{}, key string) (int, bool, error) {
	v, present := fields[key]
	if !present || v == nil {
		return 0, false, nil
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
	switch {
	case f < 0:
		return 0, true, fmt.Errorf("%s must be non-negative", key)
	case f > maxNutrientValue:
		return 0, true, fmt.Errorf("%s exceeds %d", key, maxNutrientValue)
	case f != math.Trunc(f):
		return 0, true, fmt.Errorf("%s must be a whole number", key)
	}
	return int(f), true, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
