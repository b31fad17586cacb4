package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/entity"
)

type ExtractionJobRepository interface {
	CreateQueued(ctx context.Context, sourceFile string, docType constants.DocType) (*entity.ExtractionJob, error)
	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	FinishExtracted(ctx context.Context, jobID uuid.UUID, job *entity.ExtractionJob) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	ListResults(ctx context.Context) ([]*entity.ExtractionJob, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractionJobRepository(db *DB, log *slog.Logger) ExtractionJobRepository {
	return &jobRepo{db: db, log: log}
}

func (r *jobRepo) CreateQueued(ctx context.Context, sourceFile string, docType constants.DocType) (*entity.ExtractionJob, error) {
	job := &entity.ExtractionJob{
		ID:         uuid.New(),
		SourceFile: sourceFile,
		DocType:    docType,
		Status:     constants.JobStatusQueued,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.SQL.ExecContext(ctx,
		`INSERT INTO extraction_jobs (id, source_file, doc_type, status, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID.String(), job.SourceFile, int(job.DocType), string(job.Status), job.StartedAt)
	if err != nil {
		r.log.Error("job create failed", "source_file", sourceFile, "error", err)
		return nil, err
	}
	r.log.Info("job queued", "job_id", job.ID, "source_file", sourceFile, "doc_type", docType.String())
	return job, nil
}

func (r *jobRepo) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.SQL.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = $1 WHERE id = $2`,
		string(constants.JobStatusRunning), jobID.String())
	if err != nil {
		r.log.Error("job mark running failed", "job_id", jobID, "error", err)
	}
	return err
}

func (r *jobRepo) FinishExtracted(ctx context.Context, jobID uuid.UUID, job *entity.ExtractionJob) error {
	now := time.Now().UTC()
	_, err := r.db.SQL.ExecContext(ctx,
		`UPDATE extraction_jobs
		 SET status = $1, contract_number = $2, contract_date = $3, tax_id = $4,
		     resident = $5, business = $6, finished_at = $7
		 WHERE id = $8`,
		string(constants.JobStatusExtracted),
		job.ContractNumber, job.ContractDate, job.TaxID,
		job.Resident, job.Business, now, jobID.String())
	if err != nil {
		r.log.Error("job finish failed", "job_id", jobID, "error", err)
		return err
	}
	r.log.Info("job finished", "job_id", jobID, "complete", job.Complete())
	return nil
}

func (r *jobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	now := time.Now().UTC()
	_, err := r.db.SQL.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4`,
		string(constants.JobStatusFailed), message, now, jobID.String())
	if err != nil {
		r.log.Error("job fail update failed", "job_id", jobID, "error", err)
		return err
	}
	r.log.Warn("job failed", "job_id", jobID, "error", message)
	return nil
}

func (r *jobRepo) ListResults(ctx context.Context) ([]*entity.ExtractionJob, error) {
	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT id, source_file, doc_type, status, contract_number, contract_date,
		        tax_id, resident, business, error_message, started_at, finished_at
		 FROM extraction_jobs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.ExtractionJob
	for rows.Next() {
		var (
			j        entity.ExtractionJob
			id       string
			docType  int
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(&id, &j.SourceFile, &docType, &status,
			&j.ContractNumber, &j.ContractDate, &j.TaxID,
			&j.Resident, &j.Business, &j.ErrorMessage,
			&j.StartedAt, &finished); err != nil {
			return nil, err
		}
		if j.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		j.DocType = constants.DocType(docType)
		j.Status = constants.JobStatus(status)
		if finished.Valid {
			t := finished.Time
			j.FinishedAt = &t
		}
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}
