package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "lectern/pkg/domain-errors"
)

// Typed identifiers keep an instructor's account ID from being passed where a
// verification record ID is expected. Construct them with the Parse functions
// at trust boundaries.
type (
	// UserID identifies a marketplace account (instructor or admin).
	UserID uuid.UUID
	// RecordID identifies a verification record.
	RecordID uuid.UUID
	// CertificateID identifies an education certificate inside a record.
	CertificateID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id RecordID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CertificateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *RecordID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = RecordID(u)
	return nil
}

func (id *CertificateID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = CertificateID(u)
	return nil
}

func NewRecordID() RecordID           { return RecordID(uuid.New()) }
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record ID")
	return RecordID(u), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s, "certificate ID")
	return CertificateID(u), err
}

// maxIDLength bounds input before it reaches uuid.Parse; the longest accepted
// form is the braced/urn variant.
const maxIDLength = 64

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
