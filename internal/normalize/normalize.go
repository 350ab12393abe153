package normalize

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/tabusync/internal/parser"
)

// Normalizer converts raw parsed strings into typed values.
type Normalizer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Subunit is a parsed subunit with its numeric fields resolved.
type Subunit struct {
	parser.Subunit
	SharedPercent float64 `json:"shared_percent"`
	AreaSqm       float64 `json:"area_sqm"`
	HasArea       bool    `json:"has_area"`
}

// Owner is one logical holder after duplicate rows were merged.
type Owner struct {
	SubunitID          string               `json:"subunit_id"`
	Name               string               `json:"name"`
	NationalID         string               `json:"national_id,omitempty"`
	IDType             string               `json:"id_type,omitempty"`
	RegistrationNumber string               `json:"registration_number,omitempty"`
	Kind               parser.OwnershipKind `json:"kind"`
	Share              float64              `json:"share"`
	TransferDetails    []string             `json:"transfer_details,omitempty"`
}

// Holder is the owner's identity within a subunit: the national id, or the
// name when the row carried none.
func (o Owner) Holder() string {
	return HolderOf(o.NationalID, o.Name)
}

// TransferLabel renders the transfer details in canonical form.
func (o Owner) TransferLabel() string {
	return strings.Join(CanonicalLabels(o.TransferDetails), ", ")
}

// HolderOf picks the identity used for matching owner records.
func HolderOf(nationalID, name string) string {
	id := strings.TrimSpace(nationalID)
	if id == "" || id == "null" {
		return strings.TrimSpace(name)
	}
	return id
}

// CanonicalLabels trims, dedupes and sorts a label list.
func CanonicalLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Document is a parsed extract with typed subunits and merged owners.
type Document struct {
	parser.Header
	Subunits []Subunit        `json:"subunits"`
	Owners   []Owner          `json:"owners"`
	Failures []parser.Failure `json:"failures"`
}

// Document normalizes every record of a parsed extract.
func (n *Normalizer) Document(doc *parser.Document) *Document {
	out := &Document{
		Header:   doc.Header,
		Subunits: make([]Subunit, 0, len(doc.Subunits)),
		Owners:   n.Owners(doc.Owners),
		Failures: doc.Failures,
	}
	for _, s := range doc.Subunits {
		out.Subunits = append(out.Subunits, n.Subunit(s))
	}
	return out
}

// Subunit resolves the shared fraction and area of one subunit. Fields
// marked not found stay zero without a warning.
func (n *Normalizer) Subunit(s parser.Subunit) Subunit {
	out := Subunit{Subunit: s}
	if s.SharedFraction != parser.NotFound {
		out.SharedPercent = n.Percentage(s.SharedFraction)
	}
	if s.Area != parser.NotFound {
		area := strings.ReplaceAll(strings.TrimSpace(s.Area), ",", "")
		if v, ok := readNumber(area); ok {
			out.AreaSqm = v
			out.HasArea = true
		} else if area != "" {
			n.log.Warn("unparsable area", "subunit", s.ID, "value", s.Area)
		}
	}
	return out
}

// Percentage converts a share expression to a percentage. "in full" is 100,
// "num/den" is 100*num/den, anything else is read as a decimal. Values that
// cannot be read are logged and become 0.
func (n *Normalizer) Percentage(raw string) float64 {
	value := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if value == "" {
		return 0
	}
	if value == parser.InFull {
		return 100
	}

	if num, den, ok := strings.Cut(value, "/"); ok {
		a, okA := readNumber(num)
		b, okB := readNumber(den)
		if !okA || !okB || b == 0 {
			n.log.Warn("unparsable share", "value", raw)
			return 0
		}
		return a / b * 100
	}

	v, ok := readNumber(value)
	if !ok {
		n.log.Warn("unparsable share", "value", raw)
		return 0
	}
	return v
}

// readNumber parses a finite decimal. ParseFloat also accepts "NaN" and
// "Inf", which are not shares.
func readNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type ownerKey struct {
	subunit string
	holder  string
	kind    parser.OwnershipKind
}

// Owners merges raw rows of the same holder in the same subunit. Shares are
// summed and transfer details collected in first-seen order. Output keeps the
// order in which each holder first appeared.
func (n *Normalizer) Owners(rows []parser.Owner) []Owner {
	index := make(map[ownerKey]int)
	var out []Owner
	for _, r := range rows {
		key := ownerKey{
			subunit: strings.TrimSpace(r.SubunitID),
			holder:  HolderOf(r.NationalID, r.Name),
			kind:    r.Kind,
		}
		share := n.Percentage(r.Share)
		detail := strings.TrimSpace(r.TransferDetail)

		if i, ok := index[key]; ok {
			o := &out[i]
			o.Share += share
			if detail != "" && !contains(o.TransferDetails, detail) {
				o.TransferDetails = append(o.TransferDetails, detail)
			}
			continue
		}

		o := Owner{
			SubunitID:          key.subunit,
			Name:               r.Name,
			NationalID:         strings.TrimSpace(r.NationalID),
			IDType:             r.IDType,
			RegistrationNumber: r.RegistrationNumber,
			Kind:               r.Kind,
			Share:              share,
		}
		if o.NationalID == "null" {
			o.NationalID = ""
		}
		if detail != "" {
			o.TransferDetails = []string{detail}
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
