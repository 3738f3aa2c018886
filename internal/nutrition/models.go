package nutrition

import "time"

type BMICategory string

const (
	BMIUnderweight BMICategory = "underweight"
	BMINormal      BMICategory = "normal"
	BMIOverweight  BMICategory = "overweight"
	BMIObese       BMICategory = "obese"
)

// Label is the Spanish display name.
func (c BMICategory) Label() string {
	switch c {
	case BMIUnderweight:
		return "Bajo Peso"
	case BMIOverweight:
		return "Sobrepeso"
	case BMIObese:
		return "Obesidad"
	default:
		return "Normal"
	}
}

// Targets — дневные цели, всегда вычисляются из профиля
type Targets struct {
	BMI             float64     `json:"bmi"`
	BMICategory     BMICategory `json:"bmi_category"`
	BMILabel        string      `json:"bmi_label"`
	BasalKcal       float64     `json:"basal_kcal"`
	MaintenanceKcal int         `json:"maintenance_kcal"`
	TargetKcal      int         `json:"target_kcal"`
	ProteinG        int         `json:"protein_g"`
	CarbsG          int         `json:"carbs_g"`
	FatG            int         `json:"fat_g"`
}

// TargetsResponse — ответ GET /v1/nutrition/targets
type TargetsResponse struct {
	Targets           Targets    `json:"targets"`
	ProfileUpdatedAt  *time.Time `json:"profile_updated_at,omitempty"`
	MacroKcal         int        `json:"macro_kcal"`
	MacroKcalVariance int        `json:"macro_kcal_variance"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
