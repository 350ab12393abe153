package parser

import (
	"sort"
	"strings"
)

// Fragment is a positioned run of text on one page.
type Fragment struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
}

// Line is the set of fragments sharing one baseline, ordered by ascending Left.
type Line struct {
	Y         float64
	Fragments []Fragment
}

// Text joins the line's fragments left to right with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Fragments))
	for _, f := range l.Fragments {
		parts = append(parts, f.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// GroupLines buckets one page's fragments by exact baseline and orders the
// resulting lines top to bottom (descending Y). Empty fragments are dropped.
func GroupLines(frags []Fragment) []Line {
	byY := make(map[float64][]Fragment)
	for _, f := range frags {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" {
			continue
		}
		byY[f.Y] = append(byY[f.Y], f)
	}

	ys := make([]float64, 0, len(byY))
	for y := range byY {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	lines := make([]Line, 0, len(ys))
	for _, y := range ys {
		items := byY[y]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Left < items[j].Left })
		lines = append(lines, Line{Y: y, Fragments: items})
	}
	return lines
}

// GroupPages groups every page and concatenates the lines in page order.
func GroupPages(pages [][]Fragment) []Line {
	var lines []Line
	for _, page := range pages {
		lines = append(lines, GroupLines(page)...)
	}
	return lines
}

// columnRange is a horizontal slice of the page in PDF units.
type columnRange struct {
	min, max float64
}

// textInRange joins the text of fragments overlapping the column.
func textInRange(frags []Fragment, col columnRange) string {
	var parts []string
	for _, f := range frags {
		if f.Left < col.max && f.Right > col.min {
			parts = append(parts, f.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
