package parser

import "testing"

func TestGroupLines_OrdersTopDownAndLeftToRight(t *testing.T) {
	frags := []Fragment{
		{Left: 300, Right: 340, Y: 700, Text: "b"},
		{Left: 10, Right: 40, Y: 700, Text: "a"},
		{Left: 10, Right: 40, Y: 720, Text: "top"},
		{Left: 50, Right: 60, Y: 700, Text: "  "},
		{Left: 10, Right: 40, Y: 650, Text: "bottom"},
	}
	lines := GroupLines(frags)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	want := []string{"top", "a b", "bottom"}
	for i, w := range want {
		if got := lines[i].Text(); got != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, got)
		}
	}
}

func TestGroupLines_ExactBaselineOnly(t *testing.T) {
	frags := []Fragment{
		{Left: 10, Right: 20, Y: 700, Text: "x"},
		{Left: 30, Right: 40, Y: 700.5, Text: "y"},
	}
	if got := len(GroupLines(frags)); got != 2 {
		t.Errorf("expected 2 lines for distinct baselines, got %d", got)
	}
}

func TestGroupPages_ConcatenatesInPageOrder(t *testing.T) {
	pages := [][]Fragment{
		{{Left: 10, Right: 20, Y: 100, Text: "p1"}},
		{{Left: 10, Right: 20, Y: 800, Text: "p2"}},
	}
	lines := GroupPages(pages)
	if len(lines) != 2 || lines[0].Text() != "p1" || lines[1].Text() != "p2" {
		t.Fatalf("unexpected page order: %+v", lines)
	}
}

func TestTextInRange_Overlap(t *testing.T) {
	frags := []Fragment{
		frag(0, 50, "left"),
		frag(100, 150, "mid"),
		frag(140, 200, "straddle"),
		frag(300, 350, "right"),
	}
	got := textInRange(frags, columnRange{106, 167})
	if got != "mid straddle" {
		t.Errorf("expected %q, got %q", "mid straddle", got)
	}
	if got := textInRange(frags, columnRange{400, 500}); got != "" {
		t.Errorf("expected empty column, got %q", got)
	}
}
