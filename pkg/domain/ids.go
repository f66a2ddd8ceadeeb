// Package domain holds typed identifiers and shared primitives used across
// modules. Wrapping uuid.UUID in distinct types prevents accidental mixing of
// case, party, and user identifiers at compile time.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CaseID identifies a KYC case.
type CaseID uuid.UUID

// PartyID identifies a party (person or organization) in the catalog.
type PartyID uuid.UUID

// UserID identifies an authenticated user.
type UserID uuid.UUID

// SubmissionID identifies one uploaded document attempt.
type SubmissionID uuid.UUID

// RequirementID names a document requirement (e.g. "passport",
// "certificate-of-incorporation"). Requirement IDs come from the catalog and
// are human-readable slugs rather than UUIDs.
type RequirementID string

func (id CaseID) String() string       { return uuid.UUID(id).String() }
func (id PartyID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id RequirementID) String() string { return string(id) }

func (id CaseID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id PartyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool { return id == "" }

// NewCaseID returns a fresh random case identifier.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// NewPartyID returns a fresh random party identifier.
func NewPartyID() PartyID { return PartyID(uuid.New()) }

// NewUserID returns a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSubmissionID returns a fresh random submission identifier.
func NewSubmissionID() SubmissionID { return SubmissionID(uuid.New()) }

// ParseCaseID validates and returns a CaseID from its string form.
func ParseCaseID(s string) (CaseID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CaseID{}, fmt.Errorf("parse case id: %w", err)
	}
	return CaseID(u), nil
}

// ParsePartyID validates and returns a PartyID from its string form.
func ParsePartyID(s string) (PartyID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PartyID{}, fmt.Errorf("parse party id: %w", err)
	}
	return PartyID(u), nil
}

// ParseUserID validates and returns a UserID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("parse user id: %w", err)
	}
	return UserID(u), nil
}

// ParseSubmissionID validates and returns a SubmissionID from its string form.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SubmissionID{}, fmt.Errorf("parse submission id: %w", err)
	}
	return SubmissionID(u), nil
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as their
// canonical UUID string in JSON payloads and map keys.
func (id CaseID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id PartyID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id SubmissionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *CaseID) UnmarshalText(b []byte) error {
	parsed, err := ParseCaseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PartyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePartyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SubmissionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubmissionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
