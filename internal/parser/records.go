package parser

import "fmt"

// NotFound marks a subunit field whose section was absent from the block.
const NotFound = "לא נמצא"

// RegistryOrigin labels records that came from a registry extract.
const RegistryOrigin = "נסח טאבו"

// AttachmentKind is a kind of area attached to a subunit.
type AttachmentKind string

const (
	AttachmentParking AttachmentKind = "parking"
	AttachmentRoof    AttachmentKind = "roof"
	AttachmentStorage AttachmentKind = "storage"
)

// Attachment accumulates all rows of one kind within a subunit.
type Attachment struct {
	Count     int     `json:"count"`
	TotalArea float64 `json:"total_area"`
}

// OwnershipKind separates owners from lessees.
type OwnershipKind string

const (
	KindOwnership OwnershipKind = "בעלות"
	KindLease     OwnershipKind = "חכירה"
)

// Subunit is one registered sub-parcel.
type Subunit struct {
	ID             string                        `json:"id"`
	SharedFraction string                        `json:"shared_fraction"`
	Floor          string                        `json:"floor"`
	Area           string                        `json:"area"`
	Mortgage       bool                          `json:"mortgage"`
	MortgageBank   string                        `json:"mortgage_bank,omitempty"`
	Attachments    map[AttachmentKind]Attachment `json:"attachments,omitempty"`
	Notes          string                        `json:"notes,omitempty"`
	Origin         string                        `json:"origin"`
}

// Owner is one raw ownership or lease row. An empty NationalID means the
// row carried no identifier.
type Owner struct {
	SubunitID          string        `json:"subunit_id"`
	Name               string        `json:"name"`
	NationalID         string        `json:"national_id,omitempty"`
	Share              string        `json:"share"`
	IDType             string        `json:"id_type,omitempty"`
	TransferDetail     string        `json:"transfer_detail,omitempty"`
	RegistrationNumber string        `json:"registration_number,omitempty"`
	Kind               OwnershipKind `json:"kind"`
}

// FailureKind classifies a per-subunit parse degradation.
type FailureKind string

const (
	FailureSubunitFields FailureKind = "subunit_fields"
	FailureMissingOwners FailureKind = "missing_owners"
	FailureOwnerRows     FailureKind = "owner_rows"
)

// Failure is a recoverable problem confined to one subunit.
type Failure struct {
	SubunitID string      `json:"subunit_id"`
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
}

func (f Failure) String() string {
	return fmt.Sprintf("subunit %s: %s", f.SubunitID, f.Message)
}

// Document is everything parsed from one extract.
type Document struct {
	Header
	Subunits []Subunit `json:"subunits"`
	Owners   []Owner   `json:"owners"`
	Failures []Failure `json:"failures"`
}
