package parser

// Block is the run of lines belonging to one subunit, marker line first.
type Block struct {
	SubunitID string
	Lines     []Line
}

// Segment splits cleaned lines into subunit blocks. Lines before the first
// marker are discarded; a trailing block without a following marker is kept.
func Segment(lines []Line) []Block {
	var blocks []Block
	var current *Block
	for _, l := range lines {
		if m := subunitMarkerRe.FindStringSubmatch(l.Text()); m != nil {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &Block{SubunitID: m[1], Lines: []Line{l}}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, l)
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}
