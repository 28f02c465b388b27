package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetRow is one data row of a workbook with both fields present.
type sheetRow struct {
	Sheet    string
	First    bool // row belongs to the first sheet
	Row      int // 1-based spreadsheet row number
	Topic    string
	Question string
}

// readSheetRows returns the rows of every sheet whose header row names both
// topicCol and questionCol (case-insensitive). Sheets without those headers are ignored.
func readSheetRows(path, topicCol, questionCol string) ([]sheetRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []sheetRow
	for si, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		ti, qi := columnIndex(rows[0], topicCol), columnIndex(rows[0], questionCol)
		if ti < 0 || qi < 0 {
			continue
		}
		for i, row := range rows[1:] {
			topic, question := cell(row, ti), cell(row, qi)
			if topic == "" || question == "" {
				continue
			}
			out = append(out, sheetRow{Sheet: sheet, First: si == 0, Row: i + 2, Topic: topic, Question: question})
		}
	}
	return out, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
