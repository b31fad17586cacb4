// Package ingest is the batch driver: it sweeps an input directory of PDFs
// and ZIP bundles, runs each through the extraction pipeline, renames files
// after their contract number and archives them into a dated tree. One bad
// file never stops the sweep.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/entity"
	"github.com/dkitanovski/contract-extractor/internal/extract"
	"github.com/dkitanovski/contract-extractor/internal/repository"
)

type Worker struct {
	cfg    common.BatchConfig
	proc   *Processor
	jobs   repository.ExtractionJobRepository
	logger *slog.Logger
}

func NewWorker(cfg common.BatchConfig, proc *Processor, jobs repository.ExtractionJobRepository, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.InputDir, "BACKUP")
	}
	return &Worker{cfg: cfg, proc: proc, jobs: jobs, logger: logger}
}

// Run sweeps the input directory once. Per-file failures are recorded on
// their jobs and logged; only setup problems (unreadable input dir, archive
// tree creation) abort the sweep.
func (w *Worker) Run(ctx context.Context) error {
	archiveDir, err := datedDir(w.cfg.ArchiveDir, time.Now())
	if err != nil {
		return common.NewAppError("BATCH_SETUP", "creating archive tree", err)
	}
	entries, err := os.ReadDir(w.cfg.InputDir)
	if err != nil {
		return common.NewAppError("BATCH_SETUP", "reading input dir "+w.cfg.InputDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)
	var scheduled int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(entry.Name()))
		if !constants.AllowedExt(ext) {
			continue
		}
		path := filepath.Join(w.cfg.InputDir, entry.Name())
		scheduled++
		g.Go(func() error {
			var perr error
			switch ext {
			case "zip":
				perr = w.processZip(gctx, path, archiveDir)
			default:
				perr = w.processPDF(gctx, path, archiveDir)
			}
			if perr != nil {
				w.logger.Error("batch item failed", "path", path, "error", perr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	w.logger.Info("batch sweep done", "scheduled", scheduled, "archive_dir", archiveDir)
	return nil
}

// processPDF runs one loose PDF and archives it, renamed after its contract
// number when one was found.
func (w *Worker) processPDF(ctx context.Context, path, archiveDir string) error {
	res, err := w.runJob(ctx, path)
	if err != nil {
		// Archive even the failed file so the next sweep does not retry it.
		return moveFile(path, filepath.Join(archiveDir, filepath.Base(path)))
	}
	name := filepath.Base(path)
	if res.ContractNumber != "" {
		name = res.ContractNumber + ".pdf"
	}
	return moveFile(path, filepath.Join(archiveDir, name))
}

// processZip extracts the bundle and processes members until one yields a
// complete result. All members belong to the same contract, so that result
// names every member; the remaining members are not re-extracted.
func (w *Worker) processZip(ctx context.Context, path, archiveDir string) error {
	tmpDir, err := os.MkdirTemp(filepath.Dir(path), "zip-extracted-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	members, err := unpackZip(path, tmpDir)
	if err != nil {
		return common.NewAppError("BATCH_ZIP", "unpacking "+path, err)
	}
	sort.Strings(members)

	contract := ""
	for _, member := range members {
		res, err := w.runJob(ctx, member)
		if err != nil {
			continue
		}
		if res.Complete() {
			contract = res.ContractNumber
			break
		}
		if contract == "" && res.ContractNumber != "" {
			contract = res.ContractNumber
		}
	}
	if contract == "" {
		w.logger.Warn("zip yielded no contract number", "path", path)
	}

	for i, member := range members {
		name := filepath.Base(member)
		if contract != "" {
			name = fmt.Sprintf("%s_%d.pdf", contract, i+1)
		}
		if err := moveFile(member, filepath.Join(archiveDir, name)); err != nil {
			return err
		}
	}
	return moveFile(path, filepath.Join(archiveDir, filepath.Base(path)))
}

// runJob wraps one extraction in its job record lifecycle.
func (w *Worker) runJob(ctx context.Context, path string) (extract.ExtractionResult, error) {
	docType := TypeFromFilename(path)
	job, err := w.jobs.CreateQueued(ctx, filepath.Base(path), docType)
	if err != nil {
		return extract.ExtractionResult{}, err
	}
	if err := w.jobs.MarkRunning(ctx, job.ID); err != nil {
		return extract.ExtractionResult{}, err
	}

	res, err := w.proc.Process(ctx, path, docType)
	if err != nil {
		_ = w.jobs.FinishFailure(ctx, job.ID, err.Error())
		return extract.ExtractionResult{}, err
	}
	if err := w.jobs.FinishExtracted(ctx, job.ID, jobFields(res)); err != nil {
		return extract.ExtractionResult{}, err
	}
	return res, nil
}

// jobFields converts a result into the nullable job columns. Empty strings
// persist as NULL so incompleteness survives the round trip.
func jobFields(res extract.ExtractionResult) *entity.ExtractionJob {
	j := &entity.ExtractionJob{Resident: res.Resident, Business: res.Business}
	if res.ContractNumber != "" {
		j.ContractNumber = &res.ContractNumber
	}
	if res.ContractDate != "" {
		j.ContractDate = &res.ContractDate
	}
	if res.TaxID != "" {
		j.TaxID = &res.TaxID
	}
	return j
}

// datedDir builds root/YYYY/MM/DD and returns it.
func datedDir(root string, t time.Time) (string, error) {
	dir := filepath.Join(root, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), fmt.Sprintf("%02d", t.Day()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func moveFile(src, dst string) error {
	return os.Rename(src, dst)
}

// unpackZip flattens the archive's PDF members into destDir and returns
// their paths. Member paths are sanitized against traversal.
func unpackZip(path, destDir string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var members []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := filepath.Base(f.Name)
		if constants.NormalizeExt(filepath.Ext(base)) != "pdf" {
			continue
		}
		dst := filepath.Join(destDir, base)
		if err := extractMember(f, dst); err != nil {
			return nil, err
		}
		members = append(members, dst)
	}
	return members, nil
}

func extractMember(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
