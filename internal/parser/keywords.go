package parser

import (
	"regexp"
	"strings"
)

// Registry extract vocabulary. Strings are in logical (reading) order.
const (
	kwBlock      = "גוש"
	kwParcel     = "חלקה"
	kwEndOfData  = "סוף נתונים"
	kwArea       = "שטח"
	kwMortgages  = "משכנתאות"
	kwMortgage   = "משכנתה"
	kwAttachment = "הצמדות"
	kwOwnerships = "בעלויות"
	kwLeases     = "חכירות"
	kwNotes      = "הערות"
	kwSubunit    = "תת חלקה"
	kwEasements  = "זיקות הנאה"
	kwSharedArea = "רכוש משותף"

	// InFull is the share token for a whole (100%) holding.
	InFull = "בשלמות"
)

// areaUnitTokens are the spellings of "sq.m" seen in area headers.
var areaUnitTokens = []string{`במ"ר`, "במ״ר", "במ''ר"}

var (
	pageFurnitureRe = regexp.MustCompile(`^\d+\s+מתוך\s+\d+\s+עמוד$`)
	subunitMarkerRe = regexp.MustCompile(`^(\d+)\s+תת\s+חלקה$`)

	// transferTokenRe marks a complete ownership row. Longer alternatives
	// come first so the captured label is the most specific one.
	transferTokenRe = regexp.MustCompile(`(ירושה על פי הסכם|ירושה|ללא תמורה|מתנה|` +
		`מכר לפי צו בית משפט|מכר ללא תמורה|מכר|שנוי שם|שינוי שם|תיקון טעות סופר|` +
		`צוואה - יורש אחר יורש|צוואה על פי הסכם|צוואה|רישום בית משותף|עודף|` +
		`עדכון פרטי זיהוי|חכירה|שכירות)`)
)

// boundaryKeywords end an ownership, attachment or notes section.
var boundaryKeywords = []string{
	kwNotes,
	kwSubunit,
	kwMortgages,
	kwAttachment,
	kwEasements,
	kwOwnerships,
	kwLeases,
	kwSharedArea,
}

func isBoundary(text string) bool {
	for _, kw := range boundaryKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isAreaHeader(text string) bool {
	if !strings.Contains(text, kwArea) {
		return false
	}
	for _, tok := range areaUnitTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
