package reconcile

import (
	"testing"

	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/parser"
)

func sub(id string) normalize.Subunit {
	return normalize.Subunit{Subunit: parser.Subunit{ID: id}}
}

func TestSubunits_Partition(t *testing.T) {
	existing := []Existing{
		{ID: "100", Name: "5 - 1"},
		{ID: "101", Name: "5 - 3"},
		{ID: "102", Name: "5 - 9"},
	}
	parsed := []normalize.Subunit{sub("1"), sub("2"), sub("3")}

	actions := Subunits(existing, parsed, "5")

	seen := map[string]Kind{}
	for _, a := range actions {
		if prev, dup := seen[a.Name]; dup {
			t.Fatalf("name %q appears twice (%s and %s)", a.Name, prev, a.Kind)
		}
		seen[a.Name] = a.Kind
	}

	want := map[string]Kind{"5 - 1": Update, "5 - 2": Create, "5 - 3": Update, "5 - 9": Delete}
	if len(seen) != len(want) {
		t.Fatalf("expected %d actions, got %d: %+v", len(want), len(seen), actions)
	}
	for name, kind := range want {
		if seen[name] != kind {
			t.Errorf("%s: expected %s, got %s", name, kind, seen[name])
		}
	}

	for _, a := range actions {
		switch a.Kind {
		case Create:
			if a.ItemID != "" || a.Record == nil {
				t.Errorf("create %s: expected record and no id, got %+v", a.Name, a)
			}
		case Update:
			if a.ItemID == "" || a.Record == nil {
				t.Errorf("update %s: expected id and record, got %+v", a.Name, a)
			}
		case Delete:
			if a.ItemID != "102" || a.Record != nil {
				t.Errorf("delete %s: expected id 102 and no record, got %+v", a.Name, a)
			}
		}
	}
	if last := actions[len(actions)-1]; last.Kind != Delete {
		t.Errorf("expected deletes last, got %s", last.Kind)
	}
}

func TestSubunits_EmptyExisting(t *testing.T) {
	actions := Subunits(nil, []normalize.Subunit{sub("1")}, "5")
	if len(actions) != 1 || actions[0].Kind != Create || actions[0].Name != "5 - 1" {
		t.Fatalf("expected one create, got %+v", actions)
	}
}

func TestSubunits_DuplicateExistingNames(t *testing.T) {
	existing := []Existing{{ID: "1", Name: "5 - 1"}, {ID: "2", Name: "5 - 1"}}
	actions := Subunits(existing, []normalize.Subunit{sub("1")}, "5")
	c := Count(actions)
	if c[Update] != 1 || c[Delete] != 1 || len(actions) != 2 {
		t.Fatalf("expected one update and one delete, got %+v", actions)
	}
	if actions[0].ItemID != "1" || actions[1].ItemID != "2" {
		t.Errorf("expected first board record updated, got %+v", actions)
	}
}

func owner(subunit, id, name string, transfers ...string) normalize.Owner {
	return normalize.Owner{SubunitID: subunit, NationalID: id, Name: name, Share: 100, TransferDetails: transfers}
}

func TestOwners_DuplicateRemoteMatches(t *testing.T) {
	existing := []Existing{
		{ID: "a", Name: "ישראל", SubunitRef: "S1", Holder: "111", Transfer: "מכר"},
		{ID: "b", Name: "ישראל", SubunitRef: "S1", Holder: "111", Transfer: "מכר"},
		{ID: "c", Name: "ישראל", SubunitRef: "S1", Holder: "111", Transfer: "מכר"},
	}
	parsed := []normalize.Owner{owner("1", "111", "ישראל", "מכר")}

	actions, unresolved := Owners(existing, parsed, map[string]string{"1": "S1"})
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved owners, got %d", len(unresolved))
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	if actions[0].Kind != Update || actions[0].ItemID != "a" {
		t.Errorf("expected update of first match, got %+v", actions[0])
	}
	for _, a := range actions[1:] {
		if a.Kind != Delete {
			t.Errorf("expected delete, got %+v", a)
		}
	}
}

func TestOwners_CreateUpdateDelete(t *testing.T) {
	existing := []Existing{
		{ID: "a", Name: "ישראל", SubunitRef: "S1", Holder: "111", Transfer: "מכר, ירושה"},
		{ID: "b", Name: "ישן", SubunitRef: "S1", Holder: "999", Transfer: "מכר"},
		{ID: "c", Name: "שם", SubunitRef: "S2", Holder: "עירייה", Transfer: ""},
	}
	parsed := []normalize.Owner{
		owner("1", "111", "ישראל", "ירושה", "מכר"),
		owner("1", "222", "שרה", "מתנה"),
		owner("2", "null", "עירייה"),
		owner("7", "333", "יתום"),
	}

	actions, unresolved := Owners(existing, parsed, map[string]string{"1": "S1", "2": "S2"})
	if len(unresolved) != 1 || unresolved[0].Name != "יתום" {
		t.Fatalf("expected the owner of subunit 7 unresolved, got %+v", unresolved)
	}

	got := map[string]Kind{}
	for _, a := range actions {
		got[a.Name] = a.Kind
	}
	want := map[string]Kind{"ישראל": Update, "שרה": Create, "עירייה": Update, "ישן": Delete}
	for name, kind := range want {
		if got[name] != kind {
			t.Errorf("%s: expected %s, got %s", name, kind, got[name])
		}
	}
	if c := Count(actions); c[Create] != 1 || c[Update] != 2 || c[Delete] != 1 {
		t.Errorf("unexpected counts: %v", c)
	}
}

func TestOwners_TransferDifferenceIsNewRecord(t *testing.T) {
	existing := []Existing{{ID: "a", Name: "ישראל", SubunitRef: "S1", Holder: "111", Transfer: "מכר"}}
	parsed := []normalize.Owner{owner("1", "111", "ישראל", "ירושה")}

	actions, _ := Owners(existing, parsed, map[string]string{"1": "S1"})
	c := Count(actions)
	if c[Create] != 1 || c[Delete] != 1 {
		t.Fatalf("expected create and delete, got %+v", actions)
	}
}

func TestOwners_LeaseAndOwnershipAreSeparateRecords(t *testing.T) {
	existing := []Existing{
		{ID: "a", Name: "ישראל", SubunitRef: "S1", Holder: "111", Kind: parser.KindOwnership, Transfer: "מכר"},
		{ID: "b", Name: "ישראל", SubunitRef: "S1", Holder: "111", Kind: parser.KindLease, Transfer: "מכר"},
	}
	own := owner("1", "111", "ישראל", "מכר")
	own.Kind = parser.KindOwnership
	lease := owner("1", "111", "ישראל", "מכר")
	lease.Kind = parser.KindLease

	actions, _ := Owners(existing, []normalize.Owner{own, lease}, map[string]string{"1": "S1"})
	if c := Count(actions); c[Update] != 2 || c[Create] != 0 || c[Delete] != 0 {
		t.Fatalf("expected two updates, got %+v", actions)
	}
	if actions[0].ItemID != "a" || actions[1].ItemID != "b" {
		t.Errorf("expected each kind matched to its own item, got %+v", actions)
	}
}

func TestMergeKey(t *testing.T) {
	if got := MergeKey("S1", "111", parser.KindOwnership, " מכר,ירושה "); got != "S1 - 111 - בעלות - ירושה, מכר" {
		t.Errorf("unexpected key %q", got)
	}
	if MergeKey("S1", "111", "", "מכר") != MergeKey("S1", "111", parser.KindOwnership, "מכר") {
		t.Error("expected unset kind to key as ownership")
	}
	if got := ItemName(" 5", "1 "); got != "5 - 1" {
		t.Errorf("unexpected item name %q", got)
	}
}
