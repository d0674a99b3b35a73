package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "arrears/pkg/domain-errors"
)

// LoanID identifies a loan. Typed IDs keep loan and entry identifiers from
// being swapped at call sites.
type LoanID uuid.UUID

// EntryID identifies a delinquency timeline entry once persisted.
type EntryID uuid.UUID

func (id LoanID) String() string  { return uuid.UUID(id).String() }
func (id LoanID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) String() string { return uuid.UUID(id).String() }
func (id EntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LoanID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *LoanID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id EntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EntryID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// NewLoanID returns a random loan id.
func NewLoanID() LoanID { return LoanID(uuid.New()) }

// NewEntryID returns a random entry id.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseLoanID validates and parses a loan id from an untrusted string.
func ParseLoanID(s string) (LoanID, error) {
	u, err := parseUUID(s, "loan_id")
	if err != nil {
		return LoanID{}, err
	}
	return LoanID(u), nil
}

// ParseEntryID validates and parses an entry id from an untrusted string.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry_id")
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

// maxIDLength bounds input before handing it to the UUID parser.
const maxIDLength = 64

func parseUUID(s, field string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
