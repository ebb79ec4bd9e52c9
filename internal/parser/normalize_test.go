package parser

import (
	"testing"
	"time"

	"mentionreport/internal/model"
)

func TestNormalizeDate_SupportedForms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
	}{
		{"serial", float64(45731)},
		{"serial int", 45731},
		{"serial with time fraction", 45731.75},
		{"serial as text", "45731"},
		{"dotted", "15.03.2025"},
		{"dotted short", "15.3.2025"},
		{"dotted with time", "15.03.2025 10:22"},
		{"dotted two-digit year", "15.03.25"},
		{"us slash", "3/15/2025"},
		{"day-first slash", "15/3/2025"},
		{"iso", "2025-03-15"},
		{"iso timestamp", "2025-03-15T08:30:00Z"},
		{"native", time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)},
		{"free text", "Sat Mar 15 2025"},
		{"js date string", "Sat Mar 15 2025 00:00:00 GMT+0300 (Moscow Standard Time)"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeDate(tc.in); got != "15.03.2025" {
				t.Fatalf("NormalizeDate(%v)=%q, want 15.03.2025", tc.in, got)
			}
		})
	}
}

func TestNormalizeDate_SerialEpoch(t *testing.T) {
	t.Parallel()

	if got, want := NormalizeDate(float64(45000)), "15.03.2023"; got != want {
		t.Fatalf("serial 45000=%q, want %q", got, want)
	}
	if got, want := NormalizeDate(float64(45700)), "12.02.2025"; got != want {
		t.Fatalf("serial 45700=%q, want %q", got, want)
	}
}

func TestNormalizeDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []any{nil, "", "вчера", "31.02.2025", "2025-13-01", float64(12), float64(-1), time.Time{}, true} {
		if got := NormalizeDate(in); got != "" {
			t.Fatalf("NormalizeDate(%#v)=%q, want empty", in, got)
		}
	}
}

func TestNormalizeViews_Sentinel(t *testing.T) {
	t.Parallel()

	if got := NormalizeViews(float64(0)); !got.Known || got.Count != 0 {
		t.Fatalf("views(0)=%v, want 0", got)
	}
	if got := NormalizeViews(0); got.String() != "0" {
		t.Fatalf("views(int 0)=%q, want 0", got.String())
	}
	for _, in := range []any{float64(-5), -5, float64(50_000_000), 10_000_000, nil, "", "н/д", 12.5, time.Now()} {
		if got := NormalizeViews(in); got.Known || got.String() != model.NoData {
			t.Fatalf("views(%#v)=%v, want no data", in, got)
		}
	}
}

func TestNormalizeViews_Text(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"1500":       1500,
		" 12 345 ":   12345,
		"12 345": 12345,
		"250.0":      250,
		"9999999":    9_999_999,
	}
	for in, want := range cases {
		got := NormalizeViews(in)
		if !got.Known || got.Count != want {
			t.Fatalf("views(%q)=%v, want %d", in, got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	if got := NormalizeText(nil); got != "" {
		t.Fatalf("nil=%q", got)
	}
	if got := NormalizeText("  otzovik.com "); got != "otzovik.com" {
		t.Fatalf("trim=%q", got)
	}
	if got := NormalizeText(float64(42)); got != "42" {
		t.Fatalf("float=%q", got)
	}
	if got := NormalizeText(1.5); got != "1.5" {
		t.Fatalf("fraction=%q", got)
	}
}

func TestLooksLikeDateAndNumeric(t *testing.T) {
	t.Parallel()

	if !LooksLikeDate("07.03.2025") || !LooksLikeDate("2025-03-07") {
		t.Fatalf("expected dates")
	}
	if LooksLikeDate("user_2025") {
		t.Fatalf("user_2025 is not a date")
	}
	numeric := map[string]bool{
		"12345":    true,
		" 12,5 ":   true,
		"-3.75":    true,
		".5":       true,
		"user1":    false,
		"":         false,
		"Nan":      false,
		"inf":      false,
		"Infinity": false,
		"1e5":      false,
		"12.":      false,
	}
	for in, want := range numeric {
		if got := IsNumeric(in); got != want {
			t.Fatalf("IsNumeric(%q)=%v, want %v", in, got, want)
		}
	}
}
