package parser

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidDocument means the extract has no block/parcel header.
var ErrInvalidDocument = errors.New("invalid document: block and parcel numbers not found")

// Parser turns registry extracts into subunit and ownership records.
type Parser struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

// ParseFile validates the PDF, extracts positioned text and parses it.
func (p *Parser) ParseFile(path string) (*Document, error) {
	n, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	p.log.Debug("reading extract", "path", path, "pages", n)

	pages, err := ExtractFragments(path)
	if err != nil {
		return nil, fmt.Errorf("extract fragments: %w", err)
	}
	return p.ParseLines(GroupPages(pages))
}

// ParseLines parses an already grouped line stream.
func (p *Parser) ParseLines(lines []Line) (*Document, error) {
	header, ok := FindHeader(lines)
	if !ok {
		return nil, ErrInvalidDocument
	}

	doc := &Document{Header: header}
	blocks := Segment(StripFurniture(lines))
	for _, b := range blocks {
		sub, owners, failures := p.parseBlock(b)
		doc.Subunits = append(doc.Subunits, sub)
		doc.Owners = append(doc.Owners, owners...)
		doc.Failures = append(doc.Failures, failures...)
	}

	p.log.Info("parsed extract",
		"unit", header.UnitNumber,
		"block", header.BlockNumber,
		"subunits", len(doc.Subunits),
		"owners", len(doc.Owners),
		"failures", len(doc.Failures),
	)
	return doc, nil
}

func (p *Parser) parseBlock(b Block) (Subunit, []Owner, []Failure) {
	var failures []Failure
	fail := func(kind FailureKind, msg string) {
		failures = append(failures, Failure{SubunitID: b.SubunitID, Kind: kind, Message: msg})
		p.log.Warn("subunit parse degraded", "subunit", b.SubunitID, "kind", kind, "message", msg)
	}

	sub := Subunit{ID: b.SubunitID, Origin: RegistryOrigin}
	if !extractArea(b.Lines, &sub) {
		fail(FailureSubunitFields, "area line not found")
	}
	extractMortgage(b.Lines, &sub)
	sub.Attachments = extractAttachments(b.Lines)
	sub.Notes = extractNotes(b.Lines)

	broken := false
	owners, ok := extractHolders(b.Lines, b.SubunitID, kwOwnerships, KindOwnership)
	if !ok {
		broken = true
		fail(FailureOwnerRows, "could not read ownership rows")
	}
	lessees, ok := extractHolders(b.Lines, b.SubunitID, kwLeases, KindLease)
	if !ok {
		broken = true
		fail(FailureOwnerRows, "could not read lease rows")
	}

	all := append(owners, lessees...)
	if len(all) == 0 && !broken {
		fail(FailureMissingOwners, "no owners found")
	}
	return sub, all, failures
}
