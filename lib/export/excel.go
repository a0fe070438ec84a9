// Package export builds downloadable Excel workbooks from derived inventory
// and fleet views.
package export

import (
	"bytes"
	"fmt"
	"time"

	"assetflow/lib/inventory"
	"assetflow/lib/servicedue"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// SiteInventoryWorkbook renders one site's derived inventory as an xlsx
// workbook and returns the serialized bytes
func SiteInventoryWorkbook(siteName string, items []inventory.SiteInventoryItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Site Inventory"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Item ID", "Item Name", "Quantity", "Unit", "Category", "Last Updated"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, item := range items {
		values := []interface{}{
			item.ItemID,
			item.ItemName,
			item.Quantity,
			item.Unit,
			item.Category,
			item.LastUpdated.Format(dateLayout),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "E", "F", 18)

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

// FleetServiceWorkbook renders the fleet service view as an xlsx workbook.
// Units with no derivable due date show N/A in the due columns.
func FleetServiceWorkbook(statuses []servicedue.Status) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Fleet Service"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Kind", "Unit ID", "Name", "Status", "Last Service", "Next Due", "Days Remaining", "Urgency"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	formatDate := func(t *time.Time) string {
		if t == nil {
			return "N/A"
		}
		return t.Format(dateLayout)
	}

	for row, status := range statuses {
		daysRemaining := "N/A"
		if status.NextServiceDue != nil {
			daysRemaining = fmt.Sprintf("%d", status.DaysRemaining)
		}
		values := []interface{}{
			string(status.Unit.Kind),
			status.Unit.ID,
			status.Name,
			status.UnitStatus,
			formatDate(status.LastServiceDate),
			formatDate(status.NextServiceDue),
			daysRemaining,
			string(status.Urgency),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "E", "F", 14)

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buffer.Bytes(), nil
}
