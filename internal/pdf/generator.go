package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/dossiers-service/internal/model"
)

// Generator renders a dossier summary with the core Helvetica font; French
// text goes through the cp1252 translator.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.DossierDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Dossier "+doc.Dossier.DossierNumber, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	d := doc.Dossier

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Dossier d'impayés n° %s", d.DossierNumber)), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Ouvert le %s, édité le %s", formatDate(d.CreationDate), formatDate(doc.GeneratedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, g.fontName, tr, "Suivi")
	lines(pdf, g.fontName, tr, []string{
		fmt.Sprintf("Statut : %s", d.Status.Label()),
		fmt.Sprintf("Prochaine échéance : %s", safeValue(d.NextDeadline)),
		fmt.Sprintf("Prochaine action : %s", safeValue(d.NextAction)),
		fmt.Sprintf("Notes : %s", safeValue(d.AdditionalNotes)),
	})

	section(pdf, g.fontName, tr, "Locataire")
	t := d.Tenant
	lines(pdf, g.fontName, tr, []string{
		fmt.Sprintf("%s %s", t.FirstName, t.LastName),
		fmt.Sprintf("Adresse : %s, %s %s", t.Address, t.PostalCode, t.City),
		fmt.Sprintf("Email : %s", t.Email),
		fmt.Sprintf("Téléphone : %s", t.Phone),
	})

	section(pdf, g.fontName, tr, "Bailleur")
	l := d.Landlord
	lines(pdf, g.fontName, tr, []string{
		fmt.Sprintf("%s (%s)", l.Name, l.Type.Label()),
		fmt.Sprintf("Email : %s", l.Email),
		fmt.Sprintf("Téléphone : %s", l.Phone),
	})

	section(pdf, g.fontName, tr, "Impayés")
	u := d.UnpaidAmount
	lines(pdf, g.fontName, tr, []string{
		fmt.Sprintf("Montant : %s EUR sur %d mois", formatAmount(u.Amount), u.Months),
		fmt.Sprintf("Depuis le : %s", formatDate(u.Since)),
		fmt.Sprintf("Motif : %s", u.Reason.Label()),
		fmt.Sprintf("Actions déjà menées : %s", safeValue(u.PreviousActions)),
	})

	section(pdf, g.fontName, tr, "Historique des statuts")
	widths := []float64{50, 130}
	drawTableRow(pdf, g.fontName, tr, []string{"Date", "Statut"}, widths, true)
	for _, entry := range d.StatusHistory {
		drawTableRow(pdf, g.fontName, tr, []string{formatDateTime(entry.Date), entry.Status.Label()}, widths, false)
	}

	if doc.Diagnostic != nil {
		pdf.Ln(2)
		section(pdf, g.fontName, tr, "Diagnostic social et financier")
		b := doc.Diagnostic.Bilan
		lines(pdf, g.fontName, tr, []string{
			fmt.Sprintf("Total des ressources : %s EUR", formatAmount(b.TotalRessources)),
			fmt.Sprintf("Total des charges : %s EUR", formatAmount(b.TotalCharges)),
			fmt.Sprintf("Reste à vivre : %s EUR", formatAmount(b.ResteAVivre)),
			fmt.Sprintf("Taux d'effort : %.2f %%", b.TauxEffort*100),
		})
		if b.ResteAVivre < 0 {
			pdf.SetTextColor(200, 0, 0)
			pdf.MultiCell(0, 6, tr("Attention : les charges dépassent les ressources du ménage."), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
}

func lines(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, items []string) {
	pdf.SetFont(fontName, "", 10)
	for _, line := range items {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "-"
	}
	return *value
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}
