package report

import "fmt"

// InputError 输入不可用：无法读取、没有 Sheet、指定 Sheet 不存在。不重试，原样返回给调用方。
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %s: %v", e.Op, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// OutputError 生成或写出结果工作簿失败
type OutputError struct {
	Op  string
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output error: %s: %v", e.Op, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// ExtractionWarning 单行抽取问题；记录日志并跳过/保留该行，从不中断整个处理
type ExtractionWarning struct {
	Row     int    `json:"row"` // 源表行号（1 起）
	Reason  string `json:"reason"`
	Rule    string `json:"rule,omitempty"` // 命中的分类规则
	Skipped bool   `json:"skipped"`      // true 表示该行未进入报告
}

func (w ExtractionWarning) String() string {
	s := fmt.Sprintf("row %d: %s", w.Row, w.Reason)
	if w.Skipped {
		s = fmt.Sprintf("row %d skipped: %s", w.Row, w.Reason)
	}
	if w.Rule != "" {
		s += " (rule " + w.Rule + ")"
	}
	return s
}
