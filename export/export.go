// Package export renders a search result set into downloadable files.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/scout-labs/tradescout/models"
)

// MIME types for the supported formats.
const (
	MIMEExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEJSON  = "application/json"
)

// Excel renders the result set as an xlsx workbook: a header row with the
// canonical columns and one row per product.
func Excel(results *models.SearchResults) ([]byte, error) {
	if results == nil || len(results.Products) == 0 {
		return nil, fmt.Errorf("export: no products to render")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, col := range models.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("export: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, fmt.Errorf("export: header cell: %w", err)
		}
	}

	for r, product := range results.Products {
		for c, col := range models.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("export: data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, product[col]); err != nil {
				return nil, fmt.Errorf("export: data cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the full result set as indented JSON, matching the shape
// returned by the search endpoint.
func JSON(results *models.SearchResults) ([]byte, error) {
	if results == nil || len(results.Products) == 0 {
		return nil, fmt.Errorf("export: no products to render")
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal results: %w", err)
	}
	return data, nil
}

// Extension maps a format token to the real file extension.
func Extension(format string) string {
	if format == "excel" {
		return "xlsx"
	}
	return "json"
}

// MIME maps a format token to its content type.
func MIME(format string) string {
	if format == "excel" {
		return MIMEExcel
	}
	return MIMEJSON
}

// Filename builds the attachment name served with a download:
// tradeindia_{product}_{timestamp}.{ext}.
func Filename(productName, format string, now time.Time) string {
	return fmt.Sprintf("tradeindia_%s_%s.%s", productName, now.Format("20060102_150405"), Extension(format))
}
