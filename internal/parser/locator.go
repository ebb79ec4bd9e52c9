package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"mentionreport/internal/model"
)

var (
	// ErrNoSheets 工作簿中没有任何 Sheet
	ErrNoSheets = errors.New("workbook has no sheets")
	// ErrSheetNotFound 显式指定的 Sheet 不存在
	ErrSheetNotFound = errors.New("sheet not found")
)

// Sheet 一个工作表的全部原始行
type Sheet struct {
	Name string
	Rows []model.RawRow
}

// NonEmptyRows 非空行数
func (s Sheet) NonEmptyRows() int {
	n := 0
	for _, row := range s.Rows {
		if !RowIsBlank(row) {
			n++
		}
	}
	return n
}

// LocateOptions 选择 Sheet 的提示
type LocateOptions struct {
	SheetName string   // 显式指定，优先级最高
	Month     MonthRef // 月份提示（来自参数或文件名）
}

// LocateResult 选择结果
type LocateResult struct {
	Sheet  Sheet
	Reason string // explicit / month / largest
}

type sheetCandidate struct {
	order int
	sheet Sheet
	rows  int
}

// LocateSheet 选择要处理的 Sheet：显式名称 > 月份匹配 > 非空行最多
func LocateSheet(sheets []Sheet, opts LocateOptions) (LocateResult, error) {
	if len(sheets) == 0 {
		return LocateResult{}, ErrNoSheets
	}

	if name := strings.TrimSpace(opts.SheetName); name != "" {
		for _, s := range sheets {
			if s.Name == name {
				return LocateResult{Sheet: s, Reason: "explicit"}, nil
			}
		}
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s.Name), name) {
				return LocateResult{Sheet: s, Reason: "explicit"}, nil
			}
		}
		return LocateResult{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	all := make([]sheetCandidate, 0, len(sheets))
	for i, s := range sheets {
		all = append(all, sheetCandidate{order: i, sheet: s, rows: s.NonEmptyRows()})
	}

	monthCands := make([]sheetCandidate, 0)
	for _, c := range all {
		if opts.Month.Valid() {
			if MatchesMonth(c.sheet.Name, opts.Month.Month) {
				monthCands = append(monthCands, c)
			}
			continue
		}
		if DetectMonth(c.sheet.Name).Valid() {
			monthCands = append(monthCands, c)
		}
	}
	if len(monthCands) > 0 {
		return LocateResult{Sheet: largest(monthCands).sheet, Reason: "month"}, nil
	}

	return LocateResult{Sheet: largest(all).sheet, Reason: "largest"}, nil
}

// largest 非空行最多者；并列时取工作簿中靠前的
func largest(cands []sheetCandidate) sheetCandidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rows != cands[j].rows {
			return cands[i].rows > cands[j].rows
		}
		return cands[i].order < cands[j].order
	})
	return cands[0]
}
