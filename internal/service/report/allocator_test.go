package report

import (
	"testing"

	"mentionreport/internal/model"
)

func classified(class model.Class, row, score int) Classified {
	return Classified{Class: class, Record: model.Record{RowNo: row, QualityScore: score}}
}

func rowNos(records []model.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.RowNo
	}
	return out
}

func TestAllocate_CapacityInvariant(t *testing.T) {
	t.Parallel()

	var items []Classified
	for i := 0; i < 25; i++ {
		items = append(items, classified(model.ClassCommentOrDiscussion, i+1, i%5*10))
	}
	for i := 0; i < 3; i++ {
		items = append(items, classified(model.ClassDiscussion, 100+i, 100))
	}

	for _, limit := range []int{0, 1, 20, 25, 40} {
		b := Allocate(items, AllocatorConfig{MaxTopComments: limit})
		wantTop := limit
		if wantTop > 25 {
			wantTop = 25
		}
		if len(b.TopComments) != wantTop {
			t.Fatalf("limit=%d: top=%d, want %d", limit, len(b.TopComments), wantTop)
		}
		if want := 3 + 25 - wantTop; len(b.Discussions) != want {
			t.Fatalf("limit=%d: discussions=%d, want %d", limit, len(b.Discussions), want)
		}
	}
}

func TestAllocate_RankAndCategories(t *testing.T) {
	t.Parallel()

	items := []Classified{
		classified(model.ClassCommentOrDiscussion, 1, 50),
		classified(model.ClassReview, 2, 60),
		classified(model.ClassCommentOrDiscussion, 3, 90),
		classified(model.ClassDiscussion, 4, 10),
		classified(model.ClassCommentOrDiscussion, 5, 50),
		classified(model.ClassReview, 6, 90),
		classified(model.ClassCommentOrDiscussion, 7, 20),
	}

	b := Allocate(items, AllocatorConfig{MaxTopComments: 2})

	if got := rowNos(b.Reviews); len(got) != 2 || got[0] != 6 || got[1] != 2 {
		t.Fatalf("reviews=%v, want [6 2]", got)
	}
	// 同分保持源表顺序：1 先于 5
	if got := rowNos(b.TopComments); len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Fatalf("top=%v, want [3 1]", got)
	}
	if got := rowNos(b.Discussions); len(got) != 3 || got[0] != 4 || got[1] != 5 || got[2] != 7 {
		t.Fatalf("discussions=%v, want [4 5 7]", got)
	}

	for _, r := range b.Reviews {
		if r.Category != model.CategoryReview {
			t.Fatalf("review category=%q", r.Category)
		}
	}
	for _, r := range b.TopComments {
		if r.Category != model.CategoryTopComment {
			t.Fatalf("top comment category=%q", r.Category)
		}
	}
	for _, r := range b.Discussions {
		if r.Category != model.CategoryDiscussion {
			t.Fatalf("discussion category=%q", r.Category)
		}
	}
	if items[0].Record.Category != "" {
		t.Fatalf("input records must not be mutated")
	}
}

func TestAllocate_ReviewCapAndDefaults(t *testing.T) {
	t.Parallel()

	var items []Classified
	for i := 0; i < 30; i++ {
		items = append(items, classified(model.ClassReview, i+1, 100-i))
		items = append(items, classified(model.ClassCommentOrDiscussion, 100+i, 50))
	}

	b := Allocate(items, DefaultAllocatorConfig())
	if len(b.Reviews) != 30 || len(b.TopComments) != 20 || len(b.Discussions) != 10 {
		t.Fatalf("default sizes: %d/%d/%d", len(b.Reviews), len(b.TopComments), len(b.Discussions))
	}

	b = Allocate(items, AllocatorConfig{MaxTopComments: -3, MaxReviews: 5})
	if len(b.Reviews) != 5 || b.Reviews[0].RowNo != 1 {
		t.Fatalf("capped reviews: %v", rowNos(b.Reviews))
	}
	if len(b.TopComments) != 0 || len(b.Discussions) != 30 {
		t.Fatalf("negative cap: top=%d discussions=%d", len(b.TopComments), len(b.Discussions))
	}
}

func TestAllocate_Empty(t *testing.T) {
	t.Parallel()

	b := Allocate(nil, DefaultAllocatorConfig())
	if len(b.Reviews)+len(b.TopComments)+len(b.Discussions) != 0 {
		t.Fatalf("expected empty buckets")
	}
}
