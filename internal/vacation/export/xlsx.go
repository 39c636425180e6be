// Copyright (c) 2026 Vacaplan. All rights reserved.

package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Vacations"

// writeXLSX serializes the stream as a single-sheet workbook with a
// styled header row.
func writeXLSX(writer io.Writer, stream func(yield func(*Row) error) error) (int, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, err
	}

	headerStyle, err := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return 0, err
	}

	for column, title := range header {
		cell, err := excelize.CoordinatesToCellName(column+1, 1)
		if err != nil {
			return 0, err
		}
		if err := workbook.SetCellValue(sheetName, cell, title); err != nil {
			return 0, err
		}
	}
	firstHeader, _ := excelize.CoordinatesToCellName(1, 1)
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := workbook.SetCellStyle(sheetName, firstHeader, lastHeader, headerStyle); err != nil {
		return 0, err
	}

	count := 0
	err = stream(func(row *Row) error {
		count++
		for column, value := range row.cells() {
			cell, err := excelize.CoordinatesToCellName(column+1, count+1)
			if err != nil {
				return err
			}
			if err := workbook.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	if err := workbook.Write(writer); err != nil {
		return count, err
	}
	return count, nil
}
