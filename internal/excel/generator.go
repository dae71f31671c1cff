package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/dossiers-service/internal/model"
)

const (
	summarySheet  = "Synthèse"
	registerSheet = "Dossiers"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the dossier register: a summary sheet with totals per
// status and one row per dossier on the second sheet.
func (g *Generator) Generate(dossiers []model.Dossier, generatedAt time.Time) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := file.NewSheet(registerSheet); err != nil {
		return nil, err
	}

	g.writeSummary(file, dossiers, generatedAt)
	g.writeRegister(file, dossiers)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, dossiers []model.Dossier, generatedAt time.Time) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Édité le")
	set("B1", generatedAt.Format("2006-01-02 15:04"))
	set("A2", "Nombre de dossiers")
	set("B2", len(dossiers))
	set("A3", "Total des impayés, EUR")
	set("B3", formatAmount(totalUnpaid(dossiers)))

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Statut")
	set(fmt.Sprintf("B%d", tableRow), "Dossiers")
	set(fmt.Sprintf("C%d", tableRow), "Impayés, EUR")

	counts, amounts := byStatus(dossiers)
	for i, status := range model.DossierStatuses {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), status.Label())
		set(fmt.Sprintf("B%d", row), counts[status])
		set(fmt.Sprintf("C%d", row), formatAmount(amounts[status]))
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 28)
	_ = file.SetColWidth(summarySheet, "B", "C", 16)
}

func (g *Generator) writeRegister(file *excelize.File, dossiers []model.Dossier) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(registerSheet, cell, value)
	}

	headers := []string{
		"Numéro",
		"Ouvert le",
		"Statut",
		"Locataire",
		"Adresse",
		"Bailleur",
		"Type de bailleur",
		"Montant impayé, EUR",
		"Mois",
		"Motif",
		"Prochaine échéance",
		"Prochaine action",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, d := range dossiers {
		row := i + 2
		set(fmt.Sprintf("A%d", row), d.DossierNumber)
		set(fmt.Sprintf("B%d", row), formatDate(d.CreationDate))
		set(fmt.Sprintf("C%d", row), d.Status.Label())
		set(fmt.Sprintf("D%d", row), d.Tenant.FirstName+" "+d.Tenant.LastName)
		set(fmt.Sprintf("E%d", row), fmt.Sprintf("%s, %s %s", d.Tenant.Address, d.Tenant.PostalCode, d.Tenant.City))
		set(fmt.Sprintf("F%d", row), d.Landlord.Name)
		set(fmt.Sprintf("G%d", row), d.Landlord.Type.Label())
		set(fmt.Sprintf("H%d", row), formatAmount(d.UnpaidAmount.Amount))
		set(fmt.Sprintf("I%d", row), d.UnpaidAmount.Months)
		set(fmt.Sprintf("J%d", row), d.UnpaidAmount.Reason.Label())
		set(fmt.Sprintf("K%d", row), formatString(d.NextDeadline))
		set(fmt.Sprintf("L%d", row), formatString(d.NextAction))
	}

	_ = file.SetColWidth(registerSheet, "A", "A", 18)
	_ = file.SetColWidth(registerSheet, "B", "C", 20)
	_ = file.SetColWidth(registerSheet, "D", "F", 32)
	_ = file.SetColWidth(registerSheet, "G", "L", 18)
}

func byStatus(dossiers []model.Dossier) (map[model.DossierStatus]int, map[model.DossierStatus]float64) {
	counts := make(map[model.DossierStatus]int, len(model.DossierStatuses))
	amounts := make(map[model.DossierStatus]float64, len(model.DossierStatuses))
	for _, d := range dossiers {
		counts[d.Status]++
		amounts[d.Status] += d.UnpaidAmount.Amount
	}
	return counts, amounts
}

func totalUnpaid(dossiers []model.Dossier) float64 {
	total := 0.0
	for _, d := range dossiers {
		total += d.UnpaidAmount.Amount
	}
	return total
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
