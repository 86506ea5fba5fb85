package core

import (
	"fmt"
	"strings"
)

// ValidateRawRecord validates a RawRecord according to ingestion rules.
//
// Validation rules:
//   - Phrase must not be blank
//
// NOT validated:
//   - Topics (blank labels are dropped during ingestion, an empty list is allowed)
func ValidateRawRecord(record *RawRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(record.Phrase) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyPhrase)
	}

	return nil
}

// ValidateSynonymGroup checks that a group has at least one non-blank member.
func ValidateSynonymGroup(group SynonymGroup) error {
	for _, member := range group {
		if strings.TrimSpace(member) != "" {
			return nil
		}
	}
	return ErrEmptySynonymGroup
}
