package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/text/unicode/norm"
)

// Glyph gaps, as a fraction of font size, that split words and fragments.
const (
	wordGapRatio     = 0.2
	fragmentGapRatio = 1.0
)

// PageCount validates that path is a readable PDF and returns its page count.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return n, nil
}

// ExtractFragments reads every page's glyphs and merges them into
// positioned fragments, one slice per page in document order.
func ExtractFragments(path string) ([][]Fragment, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([][]Fragment, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		frags, err := pageFragments(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, frags)
	}
	return pages, nil
}

func pageFragments(page pdflib.Page) (frags []Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page content: %v", r)
		}
	}()
	return glyphsToFragments(page.Content().Text), nil
}

// glyphsToFragments merges glyphs on one baseline into fragments wherever
// the horizontal gap stays under one em.
func glyphsToFragments(glyphs []pdflib.Text) []Fragment {
	byY := make(map[float64][]pdflib.Text)
	for _, g := range glyphs {
		byY[g.Y] = append(byY[g.Y], g)
	}

	var frags []Fragment
	for y, row := range byY {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var sb strings.Builder
		var cur Fragment
		open := false
		flush := func() {
			if !open {
				return
			}
			cur.Text = logicalText(sb.String())
			if cur.Text != "" {
				frags = append(frags, cur)
			}
			sb.Reset()
			open = false
		}

		var prev pdflib.Text
		for _, g := range row {
			em := math.Max(g.FontSize, 1)
			if open {
				gap := g.X - (prev.X + prev.W)
				switch {
				case gap > em*fragmentGapRatio:
					flush()
				case gap > em*wordGapRatio && g.S != " ":
					sb.WriteByte(' ')
				}
			}
			if !open {
				cur = Fragment{Left: g.X, Y: y}
				open = true
			}
			sb.WriteString(g.S)
			cur.Right = g.X + g.W
			prev = g
		}
		flush()
	}
	return frags
}

// logicalText converts a visually ordered run to reading order. Runs with
// Hebrew letters are reversed, keeping digits and Latin text left to right.
func logicalText(visual string) string {
	visual = norm.NFC.String(strings.TrimSpace(visual))
	if !hasHebrew(visual) {
		return visual
	}

	rs := []rune(visual)
	reverseRunes(rs)
	for i := 0; i < len(rs); {
		if !isLTR(rs[i]) {
			rs[i] = mirror(rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && (isLTR(rs[j]) || (isJoiner(rs[j]) && j+1 < len(rs) && isLTR(rs[j+1]))) {
			j++
		}
		reverseRunes(rs[i:j])
		i = j
	}
	return string(rs)
}

func hasHebrew(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
	}
	return false
}

func isLTR(r rune) bool {
	return unicode.IsDigit(r) || (r < unicode.MaxASCII && unicode.IsLetter(r))
}

func isJoiner(r rune) bool {
	return strings.ContainsRune("./-:,%", r)
}

func mirror(r rune) rune {
	switch r {
	case '(':
		return ')'
	case ')':
		return '('
	}
	return r
}

func reverseRunes(rs []rune) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
