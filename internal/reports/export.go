package reports

import (
	"fmt"
	"io"

	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Trips"

var reportHeaders = []string{
	"Trip No", "Date", "Driver", "Customer", "Source", "Destination",
	"Car", "Customer Paid", "Driver Paid", "Expenses", "Profit",
}

// ExportFilename is the attachment name of an exported report.
func ExportFilename(report *models.Report) string {
	return fmt.Sprintf("trips_%s_%s.xlsx", report.StartDate, report.EndDate)
}

// WriteXLSX renders the report as a spreadsheet with one row per trip and a totals row.
func WriteXLSX(w io.Writer, report *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(reportSheet, cell, header)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reportHeaders))

	f.SetColWidth(reportSheet, "A", "B", 12)
	f.SetColWidth(reportSheet, "C", "G", 20)
	f.SetColWidth(reportSheet, "H", lastCol, 15)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	f.SetCellStyle(reportSheet, "A1", lastCol+"1", headerStyle)

	for i, trip := range report.Trips {
		row := i + 2
		values := []interface{}{
			trip.TripNo,
			trip.CreatedAt.Format(DateLayout),
			driverName(trip.Driver),
			customerName(trip.Customer),
			trip.Route.Source,
			trip.Route.Destination,
			trip.Car,
			trip.Amounts.CustomerPaid,
			trip.Amounts.DriverPaid,
			models.RoundMoney(trip.StopExpenseTotal() + trip.ClosingExpenseTotal()),
			trip.Profit,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(reportSheet, cell, v)
		}
	}

	totalRow := len(report.Trips) + 2
	f.SetCellValue(reportSheet, fmt.Sprintf("A%d", totalRow), "TOTAL")
	f.SetCellValue(reportSheet, fmt.Sprintf("B%d", totalRow), report.Totals.Count)
	f.SetCellValue(reportSheet, fmt.Sprintf("H%d", totalRow), report.Totals.CustomerPaid)
	f.SetCellValue(reportSheet, fmt.Sprintf("I%d", totalRow), report.Totals.DriverPaid)
	f.SetCellValue(reportSheet, fmt.Sprintf("K%d", totalRow), report.Totals.Profit)

	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	f.SetCellStyle(reportSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("%s%d", lastCol, totalRow), totalStyle)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}

func driverName(d *models.Driver) string {
	if d == nil {
		return ""
	}
	return d.Name
}

func customerName(c *models.Customer) string {
	if c == nil {
		return ""
	}
	return c.Name
}
