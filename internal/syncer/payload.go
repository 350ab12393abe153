package syncer

import (
	"strconv"
	"strings"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/normalize"
	"github.com/dgallion1/tabusync/internal/parser"
)

// subunitValues builds the full column payload of a subunit item.
func subunitValues(acct config.Account, unitItemID string, s *normalize.Subunit) board.Values {
	cols := acct.Subunits
	v := board.Values{}
	v.Set(cols.Column(config.ColSharedPercent), s.SharedPercent)
	v.Set(cols.Column(config.ColFloor), s.Floor)
	if s.HasArea {
		v.Set(cols.Column(config.ColArea), s.AreaSqm)
	}

	mortgage := acct.Labels.MortgageAbsent
	if s.Mortgage {
		mortgage = acct.Labels.MortgagePresent
	}
	v.Set(cols.Column(config.ColMortgage), mortgage)
	v.Set(cols.Column(config.ColMortgageBank), s.MortgageBank)
	v.Set(cols.Column(config.ColParentUnit), unitItemID)

	setAttachment(v, cols, s, parser.AttachmentParking, config.ColParkingCount, config.ColParkingArea)
	setAttachment(v, cols, s, parser.AttachmentRoof, config.ColRoofCount, config.ColRoofArea)
	setAttachment(v, cols, s, parser.AttachmentStorage, config.ColStorageCount, config.ColStorageArea)

	v.Set(cols.Column(config.ColNotes), s.Notes)
	v.Set(cols.SourceColumn, acct.Labels.Source)
	return v
}

func setAttachment(v board.Values, cols config.BoardMap, s *normalize.Subunit, kind parser.AttachmentKind, countKey, areaKey string) {
	a := s.Attachments[kind]
	v.Set(cols.Column(countKey), a.Count)
	v.Set(cols.Column(areaKey), a.TotalArea)
}

// ownerValues builds the full column payload of an owner item.
func ownerValues(acct config.Account, subunitItemID string, o *normalize.Owner) board.Values {
	cols := acct.Owners
	v := board.Values{}
	v.Set(cols.Column(config.ColNationalID), o.NationalID)
	v.Set(cols.Column(config.ColShare), o.Share)
	v.Set(cols.Column(config.ColSubunit), subunitItemID)
	if o.IDType != "" {
		v.Set(cols.Column(config.ColIDType), o.IDType)
	}
	v.Set(cols.Column(config.ColTransferDetails), normalize.CanonicalLabels(o.TransferDetails))
	v.Set(cols.Column(config.ColOwnershipKind), kindLabel(acct.Labels, o.Kind))
	if n, err := strconv.Atoi(o.SubunitID); err == nil {
		v.Set(cols.Column(config.ColSubunitNumber), n)
	}
	v.Set(cols.Column(config.ColRegistrationNumber), o.RegistrationNumber)
	v.Set(cols.SourceColumn, acct.Labels.Source)
	return v
}

func kindLabel(l config.Labels, k parser.OwnershipKind) string {
	if k == parser.KindLease {
		return l.KindLease
	}
	return l.KindOwnership
}

// ownershipKind maps a board label back to the parsed kind. Anything other
// than the lease label is ownership, matching kindLabel.
func ownershipKind(l config.Labels, label string) parser.OwnershipKind {
	if label := strings.TrimSpace(label); label != "" && label == l.KindLease {
		return parser.KindLease
	}
	return parser.KindOwnership
}
