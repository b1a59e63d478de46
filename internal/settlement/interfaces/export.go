package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	settlement "balancegrid/internal/settlement/domain"
)

// BuildBalancePDF renders a minimal PDF for a balance report.
func BuildBalancePDF(report *settlement.BalanceReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Balance Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Balance Group: %s", report.BalanceGroupID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Net Energy (kWh): %.3f", report.TotalAmount))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	// Intervals table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(55, 6, "Interval Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Interval End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Net Energy (kWh)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range report.Intervals {
		pdf.CellFormat(55, 6, row.StartTime.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, row.EndTime.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", row.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBalanceXLSX renders a minimal XLSX for a balance report.
func BuildBalanceXLSX(report *settlement.BalanceReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	intervalsSheet := "intervals"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(intervalsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Balance Report")
	_ = f.SetCellValue(summarySheet, "A3", "Balance Group")
	_ = f.SetCellValue(summarySheet, "B3", report.BalanceGroupID)
	_ = f.SetCellValue(summarySheet, "A4", "Net Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B4", report.TotalAmount)
	_ = f.SetCellValue(summarySheet, "A5", "Intervals")
	_ = f.SetCellValue(summarySheet, "B5", len(report.Intervals))

	_ = f.SetCellValue(intervalsSheet, "A1", "Interval Start")
	_ = f.SetCellValue(intervalsSheet, "B1", "Interval End")
	_ = f.SetCellValue(intervalsSheet, "C1", "Net Energy (kWh)")
	for i, row := range report.Intervals {
		line := i + 2
		_ = f.SetCellValue(intervalsSheet, fmt.Sprintf("A%d", line), row.StartTime.Format(time.RFC3339))
		_ = f.SetCellValue(intervalsSheet, fmt.Sprintf("B%d", line), row.EndTime.Format(time.RFC3339))
		_ = f.SetCellValue(intervalsSheet, fmt.Sprintf("C%d", line), row.Amount)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
