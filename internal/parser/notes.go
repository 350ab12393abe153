package parser

import (
	"sort"
	"strings"
)

// notesTitleCol is where the subunit notes title sits. Other "notes"
// headings in the extract fall outside it.
var notesTitleCol = columnRange{500, 570}

func hasNotesTitle(l Line) bool {
	for _, f := range l.Fragments {
		if strings.HasPrefix(f.Text, kwNotes) && f.Left >= notesTitleCol.min && f.Left < notesTitleCol.max {
			return true
		}
	}
	return false
}

// rightToLeft joins a line's fragments in reading order for notes text.
func rightToLeft(l Line) string {
	frags := make([]Fragment, len(l.Fragments))
	copy(frags, l.Fragments)
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].Left > frags[j].Left })
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, " ")
}

// extractNotes collects the text under every notes title up to the next
// section boundary.
func extractNotes(lines []Line) string {
	var parts []string
	for i := 0; i < len(lines); i++ {
		if !hasNotesTitle(lines[i]) {
			continue
		}
		j := i + 1
		for ; j < len(lines); j++ {
			if isBoundary(lines[j].Text()) {
				break
			}
			parts = append(parts, rightToLeft(lines[j]))
		}
		i = j - 1
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
