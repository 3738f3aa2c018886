package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/nutri-coach/internal/mealplans"
	"github.com/fdg312/nutri-coach/internal/profiles"
)

// PlanExport is everything rendered into an export.
type PlanExport struct {
	Title    string
	Profile  *profiles.UserProfile
	Snapshot *mealplans.PlanSnapshot
}

// Generator renders plan exports as PDF or CSV
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders in the requested format.
func (g *Generator) Generate(format string, in PlanExport) ([]byte, error) {
	switch format {
	case FormatCSV:
		return g.generateCSV(in)
	case FormatPDF:
		return g.generatePDF(in)
	default:
		return nil, ErrInvalidFormat
	}
}

func (g *Generator) generateCSV(in PlanExport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"slot", "name", "description", "calories", "protein_g", "carbs_g", "fats_g", "ingredients"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	plan := in.Snapshot.Plan
	for _, slot := range mealplans.Slots {
		meal, _ := plan.Meal(slot)
		row := []string{
			slot,
			meal.Name,
			meal.Description,
			strconv.Itoa(meal.Calories),
			formatInt(meal.Protein),
			formatInt(meal.Carbs),
			formatInt(meal.Fats),
			strings.Join(meal.Ingredients, "; "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	total := []string{"total", "", "", strconv.Itoa(plan.TotalCalories()), "", "", "", ""}
	if err := w.Write(total); err != nil {
		return nil, err
	}
	target := []string{"target", "", "", strconv.Itoa(in.Snapshot.TargetKcal), "", "", "", ""}
	if err := w.Write(target); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(in PlanExport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so Spanish accents render.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	fontName := "Helvetica"

	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, tr(in.Title))
	pdf.Ln(10)

	pdf.SetFont(fontName, "", 10)
	snap := in.Snapshot
	if in.Profile != nil && strings.TrimSpace(in.Profile.Name) != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Para: %s", in.Profile.Name)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Generado: %s  ·  Modelo: %s", snap.GeneratedAt.Format("2006-01-02 15:04"), snap.Model)))
	pdf.Ln(6)

	total := snap.Plan.TotalCalories()
	pdf.Cell(0, 6, tr(fmt.Sprintf("Objetivo: %d kcal  ·  Total del plan: %d kcal (%+d)", snap.TargetKcal, total, total-snap.TargetKcal)))
	pdf.Ln(10)

	for _, slot := range mealplans.Slots {
		meal, _ := snap.Plan.Meal(slot)
		g.drawMeal(pdf, tr, fontName, mealplans.SlotLabels[slot], meal)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawMeal(pdf *gofpdf.Fpdf, tr func(string) string, fontName, label string, meal mealplans.Meal) {
	pdf.SetFont(fontName, "B", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s: %s", label, meal.Name)))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	if meal.Description != "" {
		pdf.MultiCell(0, 5, tr(meal.Description), "", "L", false)
	}

	pdf.SetFont(fontName, "", 9)
	pdf.CellFormat(30, 6, tr("Calorías"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, tr("Proteína (g)"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Carbohidratos (g)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Grasas (g)", "1", 1, "C", false, 0, "")

	pdf.CellFormat(30, 6, strconv.Itoa(meal.Calories), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, formatInt(meal.Protein), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, formatInt(meal.Carbs), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, formatInt(meal.Fats), "1", 1, "C", false, 0, "")

	if len(meal.Ingredients) > 0 {
		pdf.SetFont(fontName, "I", 9)
		pdf.MultiCell(0, 5, tr("Ingredientes: "+strings.Join(meal.Ingredients, ", ")), "", "L", false)
	}
	pdf.Ln(4)
}

func formatInt(val *int) string {
	if val == nil {
		return "-"
	}
	return strconv.Itoa(*val)
}
