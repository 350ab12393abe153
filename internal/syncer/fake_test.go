package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
)

type call struct {
	op     string
	board  int64
	itemID string
	name   string
	values board.Values
}

// fakeBoard is an in-memory board. Linked results are keyed by item id and
// column id; fail makes the named op fail a number of times.
type fakeBoard struct {
	mu     sync.Mutex
	linked map[string][]board.Item
	fail   map[string]int
	failBy func(op, name string) error
	calls  []call
	nextID int
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{linked: map[string][]board.Item{}, fail: map[string]int{}, nextID: 1000}
}

func linkKey(itemID, columnID string) string { return itemID + "/" + columnID }

func (f *fakeBoard) failure(op, name string) error {
	key := op + ":" + name
	if f.fail[key] > 0 {
		f.fail[key]--
		return fmt.Errorf("%s failed", key)
	}
	if f.failBy != nil {
		return f.failBy(op, name)
	}
	return nil
}

func (f *fakeBoard) Linked(_ context.Context, itemID, columnID string) ([]board.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "linked", itemID: itemID})
	if err := f.failure("linked", itemID); err != nil {
		return nil, err
	}
	return f.linked[linkKey(itemID, columnID)], nil
}

func (f *fakeBoard) CreateItem(_ context.Context, boardID int64, name string, values board.Values) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "create", board: boardID, name: name, values: values})
	if err := f.failure("create", name); err != nil {
		return "", err
	}
	f.nextID++
	return fmt.Sprint(f.nextID), nil
}

func (f *fakeBoard) UpdateItem(_ context.Context, boardID int64, itemID string, values board.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "update", board: boardID, itemID: itemID, values: values})
	return f.failure("update", itemID)
}

func (f *fakeBoard) DeleteItem(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "delete", itemID: itemID})
	return f.failure("delete", itemID)
}

func (f *fakeBoard) ops(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noSleep records requested delays without waiting.
type noSleep struct {
	delays []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return nil
}

func testAccount() config.Account {
	return config.Account{
		ID: "42",
		Subunits: config.BoardMap{
			BoardID:      10,
			SourceColumn: "color_src",
			Columns: map[string]string{
				config.ColSharedPercent: "numeric_shared",
				config.ColFloor:         "dropdown_floor",
				config.ColArea:          "numeric_area",
				config.ColMortgage:      "color_mortgage",
				config.ColParentUnit:    "board_relation_parent",
				config.ColOwners:        "board_relation_owners",
				config.ColParkingCount:  "numeric_parking_n",
				config.ColParkingArea:   "numeric_parking_a",
			},
		},
		Owners: config.BoardMap{
			BoardID: 20,
			Columns: map[string]string{
				config.ColNationalID:      "text_id",
				config.ColShare:           "numeric_share",
				config.ColSubunit:         "board_relation_sub",
				config.ColTransferDetails: "dropdown_transfer",
				config.ColOwnershipKind:   "color_kind",
			},
		},
		Units: config.UnitBoard{
			BoardID:                30,
			SubunitsRelationColumn: "board_relation_units",
			SourceColumn:           "color_unit_src",
			StatusColumn:           "color_status",
			BlockColumn:            "text_block",
			UnitColumn:             "name",
			TechnicalNotesColumn:   "long_text_notes",
		},
		Labels: config.Labels{
			Source:          "נסח טאבו",
			MortgagePresent: "קיימת",
			MortgageAbsent:  "לא קיימת",
			StatusSuccess:   "ok",
			StatusPartial:   "partial",
			StatusFailed:    "failed",
			KindOwnership:   "בעלות",
			KindLease:       "חכירה",
		},
	}
}
