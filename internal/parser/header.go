package parser

import "strings"

const (
	// pageFurnitureLines is the run skipped at each "<n> of <m> page" line,
	// the matching line included.
	pageFurnitureLines = 9
	// headerProbeOffset is where a continuation page repeats the
	// block/parcel header; when present one more line is skipped.
	headerProbeOffset = 9
)

// Header holds the parent parcel identifiers of an extract.
type Header struct {
	UnitNumber  string `json:"unit_number"`
	BlockNumber string `json:"block_number"`
}

// FindHeader scans for the first line naming both block and parcel and reads
// the unit number from token 0 and the block number from token 2.
func FindHeader(lines []Line) (Header, bool) {
	for _, l := range lines {
		text := l.Text()
		if !isHeaderLine(text) {
			continue
		}
		parts := strings.Fields(text)
		var h Header
		if len(parts) > 0 {
			h.UnitNumber = parts[0]
		}
		if len(parts) > 2 {
			h.BlockNumber = parts[2]
		}
		return h, h.UnitNumber != ""
	}
	return Header{}, false
}

func isHeaderLine(text string) bool {
	return strings.Contains(text, kwBlock) && strings.Contains(text, kwParcel)
}

// StripFurniture removes repeated page header/footer runs and drops
// everything from the end-of-data marker on.
func StripFurniture(lines []Line) []Line {
	cleaned := make([]Line, 0, len(lines))
	for i := 0; i < len(lines); {
		text := lines[i].Text()
		if pageFurnitureRe.MatchString(text) {
			skip := pageFurnitureLines
			if probe := i + headerProbeOffset; probe < len(lines) && isHeaderLine(lines[probe].Text()) {
				skip++
			}
			i += skip
			continue
		}
		if text == kwEndOfData {
			break
		}
		cleaned = append(cleaned, lines[i])
		i++
	}
	return cleaned
}
