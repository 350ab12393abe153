package reconcile

import (
	"strings"

	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/parser"
)

// Kind is the mutation an action applies to the remote board.
type Kind string

const (
	Create Kind = "create"
	Update Kind = "update"
	Delete Kind = "delete"
)

// Action is one planned mutation. ItemID is empty for creates; Record is nil
// for deletes.
type Action[T any] struct {
	Kind   Kind
	ItemID string
	Name   string
	Record *T
}

// Existing is a record already on the board. SubunitRef, Holder, Kind and
// Transfer are only meaningful for owner records.
type Existing struct {
	ID         string
	Name       string
	SubunitRef string
	Holder     string
	Kind       parser.OwnershipKind
	Transfer   string
}

// ItemName is the display name of a subunit item.
func ItemName(unitNumber, subunitID string) string {
	return strings.TrimSpace(unitNumber) + " - " + strings.TrimSpace(subunitID)
}

// MergeKey identifies an owner record on the board: the remote subunit item,
// the holder identity, ownership or lease, and the canonical transfer label.
// An unset kind counts as ownership.
func MergeKey(subunitRef, holder string, kind parser.OwnershipKind, transfer string) string {
	if kind == "" {
		kind = parser.KindOwnership
	}
	return subunitRef + " - " + holder + " - " + string(kind) + " - " + CanonicalTransfer(transfer)
}

// CanonicalTransfer normalizes a comma separated label list so that the
// board's rendering and the parsed label set compare equal.
func CanonicalTransfer(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(normalize.CanonicalLabels(strings.Split(text, ",")), ", ")
}

// keyed groups existing records by key while remembering first-seen order.
type keyed struct {
	order  []string
	groups map[string][]Existing
}

func group(existing []Existing, key func(Existing) string) *keyed {
	k := &keyed{groups: make(map[string][]Existing)}
	for _, e := range existing {
		id := key(e)
		if _, ok := k.groups[id]; !ok {
			k.order = append(k.order, id)
		}
		k.groups[id] = append(k.groups[id], e)
	}
	return k
}

// take consumes every record under key. The first becomes the update target;
// the rest are returned for deletion.
func (k *keyed) take(key string) (first Existing, extra []Existing, ok bool) {
	matches := k.groups[key]
	if len(matches) == 0 {
		return Existing{}, nil, false
	}
	delete(k.groups, key)
	return matches[0], matches[1:], true
}

// leftovers returns unconsumed records in board order.
func (k *keyed) leftovers() []Existing {
	var out []Existing
	for _, key := range k.order {
		out = append(out, k.groups[key]...)
	}
	return out
}

func deleteAction[T any](e Existing) Action[T] {
	return Action[T]{Kind: Delete, ItemID: e.ID, Name: e.Name}
}

// Subunits plans subunit mutations. Existing items are matched by display
// name. Each parsed subunit yields one create or update; every unmatched
// existing item yields one delete. Deletes follow all creates and updates.
func Subunits(existing []Existing, parsed []normalize.Subunit, unitNumber string) []Action[normalize.Subunit] {
	byName := group(existing, func(e Existing) string { return strings.TrimSpace(e.Name) })

	actions := make([]Action[normalize.Subunit], 0, len(parsed)+len(existing))
	var extras []Existing
	for i := range parsed {
		s := &parsed[i]
		name := ItemName(unitNumber, s.ID)
		first, extra, ok := byName.take(name)
		if !ok {
			actions = append(actions, Action[normalize.Subunit]{Kind: Create, Name: name, Record: s})
			continue
		}
		actions = append(actions, Action[normalize.Subunit]{Kind: Update, ItemID: first.ID, Name: name, Record: s})
		extras = append(extras, extra...)
	}

	for _, e := range extras {
		actions = append(actions, deleteAction[normalize.Subunit](e))
	}
	for _, e := range byName.leftovers() {
		actions = append(actions, deleteAction[normalize.Subunit](e))
	}
	return actions
}

// Owners plans owner mutations against the remote subunit ids in idMap.
// Parsed owners whose subunit has no remote id are returned as unresolved
// and produce no action. Duplicate board records under one key yield one
// update and deletes for the rest; the update target is whichever the board
// returned first.
func Owners(existing []Existing, parsed []normalize.Owner, idMap map[string]string) (actions []Action[normalize.Owner], unresolved []normalize.Owner) {
	byKey := group(existing, func(e Existing) string {
		return MergeKey(e.SubunitRef, e.Holder, e.Kind, e.Transfer)
	})

	for i := range parsed {
		o := &parsed[i]
		ref, ok := idMap[o.SubunitID]
		if !ok || ref == "" {
			unresolved = append(unresolved, *o)
			continue
		}
		key := MergeKey(ref, o.Holder(), o.Kind, o.TransferLabel())
		first, extra, ok := byKey.take(key)
		if !ok {
			actions = append(actions, Action[normalize.Owner]{Kind: Create, Name: o.Name, Record: o})
			continue
		}
		actions = append(actions, Action[normalize.Owner]{Kind: Update, ItemID: first.ID, Name: o.Name, Record: o})
		for _, e := range extra {
			actions = append(actions, deleteAction[normalize.Owner](e))
		}
	}

	for _, e := range byKey.leftovers() {
		actions = append(actions, deleteAction[normalize.Owner](e))
	}
	return actions, unresolved
}

// Count tallies actions by kind.
func Count[T any](actions []Action[T]) map[Kind]int {
	out := make(map[Kind]int, 3)
	for _, a := range actions {
		out[a.Kind]++
	}
	return out
}
