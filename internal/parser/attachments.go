package parser

import (
	"strconv"
	"strings"
)

// attachmentAreaCol is the area column of an attachment row.
var attachmentAreaCol = columnRange{14, 106}

// attachmentTokens maps row text to a kind. Checked in order.
var attachmentTokens = []struct {
	token string
	kind  AttachmentKind
}{
	{"חנייה", AttachmentParking},
	{"חניה", AttachmentParking},
	{"מחסן", AttachmentStorage},
	{"גג", AttachmentRoof},
}

func attachmentKind(text string) (AttachmentKind, bool) {
	for _, t := range attachmentTokens {
		if strings.Contains(text, t.token) {
			return t.kind, true
		}
	}
	return "", false
}

func parseArea(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractAttachments reads consecutive attachment rows after each section
// heading, stopping at the first row that is not a recognizable attachment.
func extractAttachments(lines []Line) map[AttachmentKind]Attachment {
	out := make(map[AttachmentKind]Attachment)
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i].Text(), kwAttachment) {
			continue
		}
		j := i + 1
		for ; j < len(lines); j++ {
			text := lines[j].Text()
			if isBoundary(text) {
				break
			}
			kind, ok := attachmentKind(text)
			if !ok {
				break
			}
			area, ok := parseArea(textInRange(lines[j].Fragments, attachmentAreaCol))
			if !ok {
				break
			}
			a := out[kind]
			a.Count++
			a.TotalArea += area
			out[kind] = a
		}
		i = j - 1
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
