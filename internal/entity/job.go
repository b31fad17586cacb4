// Package entity holds the persisted domain records.
package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkitanovski/contract-extractor/constants"
)

// ExtractionJob is one processed source file and its extraction outcome.
// The nullable result columns stay nil when the corresponding field could
// not be determined rather than defaulting to empty or false.
type ExtractionJob struct {
	ID         uuid.UUID
	SourceFile string
	DocType    constants.DocType
	Status     constants.JobStatus

	ContractNumber *string
	ContractDate   *string
	TaxID          *string
	Resident       *bool
	Business       *bool

	ErrorMessage *string

	StartedAt  time.Time
	FinishedAt *time.Time
}

// Complete reports whether every extractable field was resolved.
func (j *ExtractionJob) Complete() bool {
	return j.ContractNumber != nil && j.ContractDate != nil &&
		j.TaxID != nil && j.Resident != nil && j.Business != nil
}
