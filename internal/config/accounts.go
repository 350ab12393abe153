package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAccount means no board mapping exists for an account id.
var ErrUnknownAccount = errors.New("unknown account")

// Semantic column keys of the subunits board.
const (
	ColSharedPercent = "shared_percent"
	ColFloor         = "floor"
	ColArea          = "area"
	ColMortgage      = "mortgage"
	ColMortgageBank  = "mortgage_bank"
	ColParentUnit    = "parent_unit"
	ColOwners        = "owners"
	ColParkingArea   = "parking_area"
	ColParkingCount  = "parking_count"
	ColRoofArea      = "roof_area"
	ColRoofCount     = "roof_count"
	ColStorageArea   = "storage_area"
	ColStorageCount  = "storage_count"
	ColNotes         = "notes"
)

// Semantic column keys of the owners board.
const (
	ColNationalID         = "national_id"
	ColShare              = "share"
	ColSubunit            = "subunit"
	ColIDType             = "id_type"
	ColTransferDetails    = "transfer_details"
	ColOwnershipKind      = "ownership_kind"
	ColSubunitNumber      = "subunit_number"
	ColRegistrationNumber = "registration_number"
)

// BoardMap maps semantic keys to the column ids of one board.
type BoardMap struct {
	BoardID      int64             `yaml:"board_id"`
	Columns      map[string]string `yaml:"columns"`
	SourceColumn string            `yaml:"source_column"`
}

// Column returns the column id for key, or "" when the board lacks it.
func (b BoardMap) Column(key string) string {
	return b.Columns[key]
}

// UnitBoard describes the parent unit board the job was triggered from.
type UnitBoard struct {
	BoardID                int64  `yaml:"board_id"`
	SubunitsRelationColumn string `yaml:"subunits_relation_column"`
	SourceColumn           string `yaml:"source_column"`
	StatusColumn           string `yaml:"status_column"`
	BlockColumn            string `yaml:"block_column"`
	UnitColumn             string `yaml:"unit_column"`
	TechnicalNotesColumn   string `yaml:"technical_notes_column"`
}

// Labels are the status and dropdown labels written to the boards.
type Labels struct {
	Source          string `yaml:"source"`
	MortgagePresent string `yaml:"mortgage_present"`
	MortgageAbsent  string `yaml:"mortgage_absent"`
	StatusSuccess   string `yaml:"status_success"`
	StatusPartial   string `yaml:"status_partial"`
	StatusFailed    string `yaml:"status_failed"`
	KindOwnership   string `yaml:"kind_ownership"`
	KindLease       string `yaml:"kind_lease"`
}

func (l *Labels) defaults() {
	if l.Source == "" {
		l.Source = "נסח טאבו"
	}
	if l.MortgagePresent == "" {
		l.MortgagePresent = "קיימת"
	}
	if l.MortgageAbsent == "" {
		l.MortgageAbsent = "לא קיימת"
	}
	if l.StatusSuccess == "" {
		l.StatusSuccess = "הושלם"
	}
	if l.StatusPartial == "" {
		l.StatusPartial = "הושלם חלקית"
	}
	if l.StatusFailed == "" {
		l.StatusFailed = "נכשל"
	}
	if l.KindOwnership == "" {
		l.KindOwnership = "בעלות"
	}
	if l.KindLease == "" {
		l.KindLease = "חכירה"
	}
}

// Account is the board mapping of one customer account.
type Account struct {
	ID       string    `yaml:"-"`
	Name     string    `yaml:"name"`
	Subunits BoardMap  `yaml:"subunits"`
	Owners   BoardMap  `yaml:"owners"`
	Units    UnitBoard `yaml:"units"`
	Labels   Labels    `yaml:"labels"`
}

// Validate reports the first missing setting the sync cannot work without.
func (a Account) Validate() error {
	switch {
	case a.Subunits.BoardID == 0:
		return fmt.Errorf("account %s: subunits.board_id is required", a.ID)
	case a.Owners.BoardID == 0:
		return fmt.Errorf("account %s: owners.board_id is required", a.ID)
	case a.Units.BoardID == 0:
		return fmt.Errorf("account %s: units.board_id is required", a.ID)
	case a.Units.SubunitsRelationColumn == "":
		return fmt.Errorf("account %s: units.subunits_relation_column is required", a.ID)
	case a.Subunits.Column(ColParentUnit) == "":
		return fmt.Errorf("account %s: subunits column %q is required", a.ID, ColParentUnit)
	case a.Subunits.Column(ColOwners) == "":
		return fmt.Errorf("account %s: subunits column %q is required", a.ID, ColOwners)
	case a.Owners.Column(ColSubunit) == "":
		return fmt.Errorf("account %s: owners column %q is required", a.ID, ColSubunit)
	}
	return nil
}

// Accounts is the loaded mapping file, keyed by account id.
type Accounts struct {
	byID map[string]Account
}

type accountsFile struct {
	Accounts map[string]Account `yaml:"accounts"`
}

// LoadAccounts reads and validates a YAML account mapping file.
func LoadAccounts(path string) (*Accounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	return ParseAccounts(data)
}

// ParseAccounts decodes and validates account mappings.
func ParseAccounts(data []byte) (*Accounts, error) {
	var f accountsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	if len(f.Accounts) == 0 {
		return nil, fmt.Errorf("accounts file defines no accounts")
	}

	accts := &Accounts{byID: make(map[string]Account, len(f.Accounts))}
	for id, a := range f.Accounts {
		a.ID = id
		a.Labels.defaults()
		if err := a.Validate(); err != nil {
			return nil, err
		}
		accts.byID[id] = a
	}
	return accts, nil
}

// Lookup resolves the mapping for an account id.
func (a *Accounts) Lookup(id string) (Account, error) {
	acct, ok := a.byID[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return acct, nil
}

// IDs lists the configured account ids in sorted order.
func (a *Accounts) IDs() []string {
	ids := make([]string, 0, len(a.byID))
	for id := range a.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
