package parser

import "strings"

// Column ranges of the area value line, in PDF units.
var (
	sharedFractionCol = columnRange{14, 106}
	floorCol          = columnRange{276, 464}
	areaCol           = columnRange{510, 564}
	mortgageBankCol   = columnRange{319, 446}
)

// extractArea reads shared fraction, floor and area from the line following
// the first area header. It reports whether the header was found.
func extractArea(lines []Line, sub *Subunit) bool {
	for i := 0; i+1 < len(lines); i++ {
		if !isAreaHeader(lines[i].Text()) {
			continue
		}
		value := lines[i+1].Fragments
		sub.SharedFraction = strings.ReplaceAll(textInRange(value, sharedFractionCol), " / ", "/")
		sub.Floor = textInRange(value, floorCol)
		sub.Area = textInRange(value, areaCol)
		return true
	}
	sub.SharedFraction = NotFound
	sub.Floor = NotFound
	sub.Area = NotFound
	return false
}

// extractMortgage confirms a mortgage only when the line after the section
// heading carries a mortgage entry; the bank is that entry's holder column.
func extractMortgage(lines []Line, sub *Subunit) {
	for i := 0; i+1 < len(lines); i++ {
		if !strings.Contains(lines[i].Text(), kwMortgages) {
			continue
		}
		next := lines[i+1]
		if !strings.Contains(next.Text(), kwMortgage) {
			continue
		}
		sub.Mortgage = true
		sub.MortgageBank = cleanName(textInRange(next.Fragments, mortgageBankCol))
		return
	}
}
