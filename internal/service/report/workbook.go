package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

// ReadWorkbook 把工作簿字节读成有序的 Sheet 列表
//
// 使用原始单元格值：数字（含日期序列号）保留为 float64，其余为字符串，空单元格为 nil。
func ReadWorkbook(data []byte) ([]parser.Sheet, error) {
	if len(data) == 0 {
		return nil, &InputError{Op: "open workbook", Err: fmt.Errorf("empty buffer")}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &InputError{Op: "open workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, &InputError{Op: "open workbook", Err: parser.ErrNoSheets}
	}

	sheets := make([]parser.Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, &InputError{Op: fmt.Sprintf("read sheet %q", name), Err: err}
		}
		sheets = append(sheets, parser.Sheet{Name: name, Rows: toRawRows(rows)})
	}
	return sheets, nil
}

func toRawRows(rows [][]string) []model.RawRow {
	out := make([]model.RawRow, len(rows))
	for i, row := range rows {
		raw := make(model.RawRow, len(row))
		for j, cell := range row {
			raw[j] = rawCell(cell)
		}
		out[i] = raw
	}
	return out
}

func rawCell(cell string) any {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	// "007" 之类带前导零的文本保持原样
	if cell != strings.TrimSpace(cell) || (len(cell) > 1 && cell[0] == '0' && cell[1] != '.') {
		return cell
	}
	if c := cell[0]; (c < '0' || c > '9') && c != '-' && c != '.' {
		return cell
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}
