package parser

import (
	"strings"
)

// Column ranges of an ownership or lease row, in PDF units.
var (
	registrationCol = columnRange{0, 106}
	shareCol        = columnRange{106, 167}
	nationalIDCol   = columnRange{167, 244}
	idTypeCol       = columnRange{244, 319}
	nameCol         = columnRange{319, 446}
	transferCol     = columnRange{446, 564}
)

var nameReplacer = strings.NewReplacer("(", "", ")", "", `"`, "''", "״", "''")

func cleanName(s string) string {
	return strings.TrimSpace(nameReplacer.Replace(s))
}

// readOwnerRow slices a line into ownership columns.
func readOwnerRow(frags []Fragment) Owner {
	return Owner{
		Name:               cleanName(textInRange(frags, nameCol)),
		NationalID:         textInRange(frags, nationalIDCol),
		Share:              textInRange(frags, shareCol),
		IDType:             textInRange(frags, idTypeCol),
		TransferDetail:     textInRange(frags, transferCol),
		RegistrationNumber: textInRange(frags, registrationCol),
	}
}

func (o Owner) complete() bool {
	return o.Name != "" && o.TransferDetail != "" && o.Share != ""
}

// sectionScan is the state of one pass over an ownership or lease section.
type sectionScan struct {
	subunitID string
	kind      OwnershipKind
	owners    []Owner
	continued bool
}

func (s *sectionScan) push(o Owner) {
	o.SubunitID = s.subunitID
	o.Kind = s.kind
	s.owners = append(s.owners, o)
	s.continued = false
}

// scan classifies lines from start until the section ends. It returns the
// index of the line that ended the section and false when the row sequence
// could not be interpreted.
func (s *sectionScan) scan(lines []Line, start int) (int, bool) {
	for j := start; j < len(lines); j++ {
		text := lines[j].Text()
		row := readOwnerRow(lines[j].Fragments)

		switch {
		case transferTokenRe.MatchString(text):
			if row.Name == "" {
				return j, false
			}
			s.push(row)
		case row.complete():
			s.push(row)
		case isBoundary(text):
			return j, true
		case s.continued:
			return j, true
		case len(s.owners) > 0 && row.Name != "":
			last := &s.owners[len(s.owners)-1]
			last.Name += " " + row.Name
			s.continued = true
		default:
			return j, false
		}
	}
	return len(lines), true
}

// extractHolders runs the row state machine over every section opened by
// keyword. A broken section yields no rows for that section.
func extractHolders(lines []Line, subunitID, keyword string, kind OwnershipKind) ([]Owner, bool) {
	var all []Owner
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i].Text(), keyword) {
			continue
		}
		s := &sectionScan{subunitID: subunitID, kind: kind}
		end, ok := s.scan(lines, i+1)
		if !ok {
			return nil, false
		}
		all = append(all, s.owners...)
		i = end - 1
	}
	return all, true
}
