package syncer

import (
	"context"
	"strings"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/parser"
)

// Outcome is the overall result of a job as shown on the unit item.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Label is the status label an account uses for the outcome.
func (o Outcome) Label(l config.Labels) string {
	switch o {
	case OutcomeSuccess:
		return l.StatusSuccess
	case OutcomePartial:
		return l.StatusPartial
	}
	return l.StatusFailed
}

// UnitUpdate is what a finished job writes back to the parent unit item.
// Empty BlockNumber and UnitNumber leave those columns untouched.
type UnitUpdate struct {
	BlockNumber string
	UnitNumber  string
	Outcome     Outcome
	Notes       string
}

// UpdateUnit writes the block number, source label, status and technical
// notes to the parent unit item.
func (e *Executor) UpdateUnit(ctx context.Context, acct config.Account, unitItemID string, u UnitUpdate) error {
	units := acct.Units
	v := board.Values{}
	if u.BlockNumber != "" {
		v.Set(units.BlockColumn, u.BlockNumber)
	}
	if u.UnitNumber != "" {
		v.Set(units.UnitColumn, u.UnitNumber)
	}
	v.Set(units.SourceColumn, acct.Labels.Source)
	v.Set(units.StatusColumn, u.Outcome.Label(acct.Labels))
	v.Set(units.TechnicalNotesColumn, u.Notes)
	return e.update(ctx, units.BoardID, unitItemID, v)
}

// OutcomeOf grades a finished sync: failed when nothing could be written,
// partial when anything was lost along the way.
func OutcomeOf(parseFailures []parser.Failure, rep *Report) Outcome {
	if rep == nil {
		return OutcomeFailed
	}
	if len(parseFailures) == 0 && rep.Clean() {
		return OutcomeSuccess
	}
	if rep.Subunits.Created+rep.Subunits.Updated == 0 && len(rep.Failures) > 0 {
		return OutcomeFailed
	}
	return OutcomePartial
}

// TechnicalNotes renders all soft failures, one per line.
func TechnicalNotes(parseFailures []parser.Failure, rep *Report) string {
	var lines []string
	for _, f := range parseFailures {
		lines = append(lines, f.String())
	}
	if rep != nil {
		lines = append(lines, rep.Failures...)
		lines = append(lines, rep.Skipped...)
	}
	return strings.Join(lines, "\n")
}
