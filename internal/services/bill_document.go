package services

import (
	"bytes"
	"fmt"

	"plate_depot_backend/internal/models"

	"github.com/phpdave11/gofpdf"
)

const billDateLayout = "02/01/2006"

// GenerateBillPDF renders a stored bill and its recomputed period breakdown
// into a printable A4 PDF.
func GenerateBillPDF(bill *models.Bill, breakdown *BillingBreakdown) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Nilkanth Plate Depot", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Centering Plate Rental Bill", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Bill No:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(60, 7, fmt.Sprintf("%d", bill.ID), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Status:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, bill.PaymentStatus, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Client:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(60, 7, breakdown.Client.Name, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Client ID:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, breakdown.Client.ID, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Site:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(60, 7, breakdown.Client.Site, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Mobile:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, breakdown.Client.MobileNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(30, 7, "Period:", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	period := fmt.Sprintf("%s to %s",
		breakdown.PeriodStart.Format(billDateLayout),
		breakdown.PeriodEnd.Format(billDateLayout))
	pdf.CellFormat(0, 7, period, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Period breakdown table.
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(35, 8, "From", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "To", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Days", "1", 0, "C", true, 0, "")
	pdf.CellFormat(55, 8, "Plates Held", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Charge", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, p := range breakdown.Periods {
		held := 0
		for _, q := range p.PlateBalances {
			if q > 0 {
				held += q
			}
		}
		pdf.CellFormat(35, 7, p.StartDate.Format(billDateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, p.EndDate.Format(billDateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", p.Days), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 7, fmt.Sprintf("%d", held), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", RoundMoney(p.TotalPeriodCharge)), "1", 1, "R", false, 0, "")
	}
	if len(breakdown.Periods) == 0 {
		pdf.CellFormat(180, 7, "No rental activity in this period", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	// Totals block.
	writeTotal := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(110, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", amount), "", 1, "R", false, 0, "")
	}
	writeTotal("Rental Charge", breakdown.TotalRentalCharge, false)
	writeTotal("Service Charge", breakdown.ServiceCharge, false)
	writeTotal("Bill Total", breakdown.TotalBillAmount, true)
	writeTotal("Previous Balance", breakdown.PreviousBalance, false)
	writeTotal("Payments Received", -breakdown.PaymentsReceived, false)
	writeTotal("Net Due", breakdown.NetDue, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering bill PDF: %w", err)
	}
	return buf.Bytes(), nil
}
