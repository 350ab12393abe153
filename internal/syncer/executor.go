package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/reconcile"
)

// serverFaultHint is appended to failures the board blamed on itself.
const serverFaultHint = " (board server error, try again later)"

// Executor reconciles a normalized extract with the boards of one account
// and applies the resulting actions one at a time.
type Executor struct {
	board board.Board
	retry Retrier
	log   *slog.Logger
}

func NewExecutor(b board.Board, retry Retrier, log *slog.Logger) *Executor {
	if retry.Log == nil {
		retry.Log = log
	}
	return &Executor{board: b, retry: retry, log: log}
}

// Input is one sync pass: the account mapping resolved for the job, the
// parent unit item and the normalized extract.
type Input struct {
	Account    config.Account
	UnitItemID string
	Document   *normalize.Document
}

// Tally counts applied actions by kind.
type Tally struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

func (t *Tally) add(k reconcile.Kind) {
	switch k {
	case reconcile.Create:
		t.Created++
	case reconcile.Update:
		t.Updated++
	case reconcile.Delete:
		t.Deleted++
	}
}

// Report is the outcome of a sync pass. Failures and Skipped hold one line
// per affected record.
type Report struct {
	SubunitIDs map[string]string `json:"subunit_ids"`
	Subunits   Tally             `json:"subunits"`
	Owners     Tally             `json:"owners"`
	Failures   []string          `json:"failures,omitempty"`
	Skipped    []string          `json:"skipped,omitempty"`
}

// Clean reports whether every action succeeded and no owner was skipped.
func (r *Report) Clean() bool {
	return len(r.Failures) == 0 && len(r.Skipped) == 0
}

// Run reads the current board state, plans the subunit actions, applies
// them, then plans and applies owner actions against the resulting subunit
// ids. Only a failure to read the current state is returned as an error;
// failed mutations are collected in the report.
func (e *Executor) Run(ctx context.Context, in Input) (*Report, error) {
	acct := in.Account
	doc := in.Document

	existingSubs, err := e.linked(ctx, in.UnitItemID, acct.Units.SubunitsRelationColumn)
	if err != nil {
		return nil, fmt.Errorf("read existing subunits: %w", err)
	}
	existingOwners, err := e.existingOwners(ctx, acct, existingSubs)
	if err != nil {
		return nil, fmt.Errorf("read existing owners: %w", err)
	}

	rep := &Report{SubunitIDs: make(map[string]string, len(doc.Subunits))}

	subActions := reconcile.Subunits(toExisting(existingSubs), doc.Subunits, doc.UnitNumber)
	e.log.Info("planned subunit actions", "actions", len(subActions), "existing", len(existingSubs))
	for _, a := range subActions {
		e.applySubunit(ctx, in, a, rep)
	}

	ownerActions, unresolved := reconcile.Owners(existingOwners, doc.Owners, rep.SubunitIDs)
	for _, o := range unresolved {
		e.log.Warn("skipping owner without subunit item", "owner", o.Name, "subunit", o.SubunitID)
		rep.Skipped = append(rep.Skipped, fmt.Sprintf("owner %s: subunit %s was not synced", o.Name, o.SubunitID))
	}
	e.log.Info("planned owner actions", "actions", len(ownerActions), "existing", len(existingOwners))
	for _, a := range ownerActions {
		e.applyOwner(ctx, in, a, rep)
	}

	e.log.Info("sync finished",
		"subunits_created", rep.Subunits.Created,
		"subunits_updated", rep.Subunits.Updated,
		"subunits_deleted", rep.Subunits.Deleted,
		"owners_created", rep.Owners.Created,
		"owners_updated", rep.Owners.Updated,
		"owners_deleted", rep.Owners.Deleted,
		"failures", len(rep.Failures),
		"skipped", len(rep.Skipped),
	)
	return rep, nil
}

func (e *Executor) linked(ctx context.Context, itemID, columnID string) ([]board.Item, error) {
	var items []board.Item
	err := e.retry.Do(ctx, "linked "+itemID, func(ctx context.Context) error {
		var err error
		items, err = e.board.Linked(ctx, itemID, columnID)
		return err
	})
	return items, err
}

// existingOwners collects the owners linked from each existing subunit,
// remembering which subunit item each came from.
func (e *Executor) existingOwners(ctx context.Context, acct config.Account, subs []board.Item) ([]reconcile.Existing, error) {
	idCol := acct.Owners.Column(config.ColNationalID)
	transferCol := acct.Owners.Column(config.ColTransferDetails)
	kindCol := acct.Owners.Column(config.ColOwnershipKind)
	ownersCol := acct.Subunits.Column(config.ColOwners)

	seen := make(map[string]bool)
	var out []reconcile.Existing
	for _, s := range subs {
		items, err := e.linked(ctx, s.ID, ownersCol)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, reconcile.Existing{
				ID:         it.ID,
				Name:       it.Name,
				SubunitRef: s.ID,
				Holder:     normalize.HolderOf(it.Values[idCol], it.Name),
				Kind:       ownershipKind(acct.Labels, it.Values[kindCol]),
				Transfer:   it.Values[transferCol],
			})
		}
	}
	return out, nil
}

func toExisting(items []board.Item) []reconcile.Existing {
	out := make([]reconcile.Existing, 0, len(items))
	for _, it := range items {
		out = append(out, reconcile.Existing{ID: it.ID, Name: it.Name})
	}
	return out
}

func (e *Executor) applySubunit(ctx context.Context, in Input, a reconcile.Action[normalize.Subunit], rep *Report) {
	acct := in.Account
	var err error
	switch a.Kind {
	case reconcile.Create:
		var id string
		id, err = e.create(ctx, acct.Subunits.BoardID, a.Name, subunitValues(acct, in.UnitItemID, a.Record))
		if err == nil {
			rep.SubunitIDs[a.Record.ID] = id
		}
	case reconcile.Update:
		// The item exists whether or not the update lands, so owners can
		// still reference it.
		rep.SubunitIDs[a.Record.ID] = a.ItemID
		err = e.update(ctx, acct.Subunits.BoardID, a.ItemID, subunitValues(acct, in.UnitItemID, a.Record))
	case reconcile.Delete:
		err = e.remove(ctx, a.ItemID)
	}
	e.record(rep, &rep.Subunits, "subunit", a.Kind, a.Name, err)
}

func (e *Executor) applyOwner(ctx context.Context, in Input, a reconcile.Action[normalize.Owner], rep *Report) {
	acct := in.Account
	var err error
	switch a.Kind {
	case reconcile.Create:
		values := ownerValues(acct, rep.SubunitIDs[a.Record.SubunitID], a.Record)
		_, err = e.create(ctx, acct.Owners.BoardID, a.Name, values)
	case reconcile.Update:
		values := ownerValues(acct, rep.SubunitIDs[a.Record.SubunitID], a.Record)
		values.Set("name", a.Record.Name)
		err = e.update(ctx, acct.Owners.BoardID, a.ItemID, values)
	case reconcile.Delete:
		err = e.remove(ctx, a.ItemID)
	}
	e.record(rep, &rep.Owners, "owner", a.Kind, a.Name, err)
}

func (e *Executor) record(rep *Report, t *Tally, what string, k reconcile.Kind, name string, err error) {
	if err == nil {
		t.add(k)
		return
	}
	msg := fmt.Sprintf("%s %s %s failed: %v", k, what, name, err)
	if board.IsServerError(err) {
		msg += serverFaultHint
	}
	e.log.Error("sync action failed", "kind", k, "record", what, "name", name, "error", err)
	rep.Failures = append(rep.Failures, msg)
}

func (e *Executor) create(ctx context.Context, boardID int64, name string, values board.Values) (string, error) {
	var id string
	err := e.retry.Do(ctx, "create "+name, func(ctx context.Context) error {
		var err error
		id, err = e.board.CreateItem(ctx, boardID, name, values)
		return err
	})
	return id, err
}

func (e *Executor) update(ctx context.Context, boardID int64, itemID string, values board.Values) error {
	return e.retry.Do(ctx, "update "+itemID, func(ctx context.Context) error {
		return e.board.UpdateItem(ctx, boardID, itemID, values)
	})
}

func (e *Executor) remove(ctx context.Context, itemID string) error {
	return e.retry.Do(ctx, "delete "+itemID, func(ctx context.Context) error {
		return e.board.DeleteItem(ctx, itemID)
	})
}
