package report

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"mentionreport/internal/model"
)

// rowOf 按默认布局构造一行
func rowOf(cells map[model.Field]any) model.RawRow {
	cols := model.DefaultColumnMap()
	row := make(model.RawRow, 15)
	for f, v := range cells {
		row[cols.Index(f)] = v
	}
	return row
}

type testSheet struct {
	name string
	rows [][]any
}

// buildWorkbook 在内存中构造 xlsx
func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for r, row := range s.rows {
			if len(row) == 0 {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}
