package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "complaintdesk/pkg/domain-errors"
)

// MaxContentLength bounds the free-text complaint description.
const MaxContentLength = 1000

// CountryCodeLength is the expected size of an ISO 3166-1 alpha-2 code.
const CountryCodeLength = 2

// Complaint is the aggregate root for a customer complaint about a product.
//
// Invariants:
//   - ProductID is positive and immutable once set
//   - Complainant is non-empty and immutable once set
//   - Content is non-empty and at most MaxContentLength characters
//   - Country is exactly CountryCodeLength characters, resolved once at
//     creation and never re-resolved
//   - CreationDate is set exactly once, at creation
//   - ClaimCounter is at least 1
//
// # Identity Invariant
//
// The pair (ProductID, Complainant) is the natural deduplication key: at most
// one live Complaint exists per pair, and repeated submissions for the same
// pair merge into it by incrementing ClaimCounter. The store does not have to
// enforce this on its own; the intake service always looks the pair up before
// creating, inside a transactional boundary. The postgres schema carries a
// unique index on the pair as a backstop for concurrent first submissions.
type Complaint struct {
	ID           uuid.UUID
	ProductID    int64
	Content      string
	CreationDate time.Time
	Complainant  string
	Country      string
	ClaimCounter int
}

// IncrementClaimCounter records one more submission for this identity pair.
// Nothing else on the record changes.
func (c *Complaint) IncrementClaimCounter() {
	c.ClaimCounter++
}

// ReplaceContent overwrites the complaint description. This is the only
// mutation path independent of the deduplication key.
func (c *Complaint) ReplaceContent(content string) error {
	if err := validateContent(content); err != nil {
		return err
	}
	c.Content = content
	return nil
}

// NewComplaint constructs a first-submission complaint. The ID stays zero
// until the store assigns one on first persistence.
func NewComplaint(productID int64, complainant, content, country string, now time.Time) (*Complaint, error) {
	if productID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "product id must be positive")
	}
	if strings.TrimSpace(complainant) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complainant cannot be empty")
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if len(country) != CountryCodeLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "country must be a 2-character ISO code")
	}
	return &Complaint{
		ProductID:    productID,
		Content:      content,
		CreationDate: now,
		Complainant:  complainant,
		Country:      country,
		ClaimCounter: 1,
	}, nil
}

func validateContent(content string) error {
	if content == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "content cannot be empty")
	}
	// The bound counts characters, not bytes; the complaints column is a
	// character-typed varchar(1000).
	if utf8.RuneCountInString(content) > MaxContentLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "content must be 1000 characters or less")
	}
	return nil
}
