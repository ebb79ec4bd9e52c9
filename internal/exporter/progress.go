package exporter

// ProgressEvent 导出进度：Percent 单调不减，Rows 为已写出的记录数
type ProgressEvent struct {
	Percent int
	Stage   string
	Rows    int
}

// progressReporter 夹紧到 0-100 并丢弃回退的百分比
type progressReporter struct {
	fn   func(ProgressEvent)
	last int
	rows int
}

func newProgressReporter(fn func(ProgressEvent)) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (p *progressReporter) wrote(n int) {
	p.rows += n
}

func (p *progressReporter) report(percent int, stage string) {
	if p.fn == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent < p.last {
		return
	}
	p.last = percent
	p.fn(ProgressEvent{
		Percent: percent,
		Stage:   stage,
		Rows:    p.rows,
	})
}
