package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const mockModel = "mock-nutri-1"

// MockProvider returns canned Spanish answers. Meal plans are scaled to
// Metadata["target_kcal"], picked by Metadata["diet_type"] and wrapped in a
// code fence like real models do.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	if req.Purpose == PurposeMealPlan {
		target, err := strconv.Atoi(req.Metadata["target_kcal"])
		if err != nil || target <= 0 {
			target = 2000
		}
		return Response{Text: "```json\n" + mockPlan(target, req.Metadata["diet_type"]) + "\n```", Model: mockModel}, nil
	}

	lastUser := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			lastUser = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}

	text := "¡Buena pregunta! Prioriza proteína magra como pollo o huevos, suma legumbres y verduras de temporada, y mantén tu hidratación. (modo demo)"
	lowered := strings.ToLower(lastUser)
	switch {
	case strings.Contains(lowered, "desayuno"):
		text = "Para el desayuno: avena con plátano y un huevo revuelto con pan integral. Rápido, barato y con buena proteína. (modo demo)"
	case strings.Contains(lowered, "proteína") || strings.Contains(lowered, "proteina"):
		text = "Fuentes económicas de proteína: huevos, jurel en lata, pollo, lentejas y porotos. (modo demo)"
	}

	return Response{Text: text, Model: mockModel}, nil
}

type mockMeal struct {
	name        string
	description string
	ingredients []string
}

// mockMenus — дневные меню по типу диеты: desayuno, almuerzo, cena, snack
var mockMenus = map[string][4]mockMeal{
	"omnivore": {
		{"Avena con plátano", "Avena cocida en leche con plátano en rodajas", []string{"avena", "leche", "plátano"}},
		{"Pollo arvejado con arroz", "Guiso casero de pollo con arvejas y arroz graneado", []string{"pollo", "arvejas", "zanahoria", "arroz"}},
		{"Tortilla de verduras", "Tortilla de huevo con zapallo italiano y ensalada chilena", []string{"huevos", "zapallo italiano", "tomate", "cebolla"}},
		{"Pan con palta", "Marraqueta integral con palta y tomate", []string{"pan marraqueta integral", "palta", "tomate"}},
	},
	"vegetarian": {
		{"Yogur con avena y fruta", "Yogur natural con avena y manzana picada", []string{"yogur natural", "avena", "manzana"}},
		{"Porotos con riendas", "Porotos guisados con tallarines y zapallo", []string{"porotos", "tallarines", "zapallo", "cebolla"}},
		{"Tortilla de acelga", "Tortilla de huevo con acelga y ensalada de tomate", []string{"huevos", "acelga", "tomate"}},
		{"Quesillo con tomate", "Quesillo fresco con tomate y orégano", []string{"quesillo", "tomate", "orégano"}},
	},
	"vegan": {
		{"Avena con plátano", "Avena cocida en bebida de soya con plátano", []string{"avena", "bebida de soya", "plátano"}},
		{"Lentejas con arroz", "Guiso de lentejas con arroz y zanahoria", []string{"lentejas", "arroz", "zanahoria", "cebolla"}},
		{"Salteado de tofu", "Tofu salteado con verduras y quinoa", []string{"tofu", "quinoa", "pimentón", "zapallo italiano"}},
		{"Pan con palta", "Marraqueta integral con palta y tomate", []string{"pan marraqueta integral", "palta", "tomate"}},
	},
	"keto": {
		{"Huevos revueltos con palta", "Huevos revueltos en mantequilla con palta", []string{"huevos", "mantequilla", "palta"}},
		{"Jurel con ensalada", "Jurel al horno con ensalada verde y aceite de oliva", []string{"jurel", "lechuga", "aceite de oliva"}},
		{"Pollo al horno con brócoli", "Trutro de pollo al horno con brócoli salteado", []string{"pollo", "brócoli", "aceite de oliva"}},
		{"Nueces y queso", "Puñado de nueces con queso mantecoso", []string{"nueces", "queso mantecoso"}},
	},
}

func mockPlan(target int, dietType string) string {
	menu, ok := mockMenus[dietType]
	if !ok {
		menu = mockMenus["omnivore"]
	}
	// protein/carbs/fat, % of kcal
	split := [3]int{30, 40, 30}
	if dietType == "keto" {
		split = [3]int{25, 5, 70}
	}

	breakfast := target * 25 / 100
	lunch := target * 35 / 100
	dinner := target * 30 / 100
	snack := target - breakfast - lunch - dinner

	meal := func(m mockMeal, kcal int) string {
		quoted := make([]string, len(m.ingredients))
		for i, ing := range m.ingredients {
			quoted[i] = strconv.Quote(ing)
		}
		return fmt.Sprintf(
			`{"name":%q,"description":%q,"calories":%d,"protein":%d,"carbs":%d,"fats":%d,"ingredients":[%s]}`,
			m.name, m.description, kcal, kcal*split[0]/100/4, kcal*split[1]/100/4, kcal*split[2]/100/9, strings.Join(quoted, ","),
		)
	}

	return fmt.Sprintf(`{"breakfast":%s,"lunch":%s,"dinner":%s,"snack":%s}`,
		meal(menu[0], breakfast),
		meal(menu[1], lunch),
		meal(menu[2], dinner),
		meal(menu[3], snack),
	)
}
