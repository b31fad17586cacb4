package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/checkbox"
	"github.com/dkitanovski/contract-extractor/internal/common"
	"github.com/dkitanovski/contract-extractor/internal/customer"
	"github.com/dkitanovski/contract-extractor/internal/entity"
	"github.com/dkitanovski/contract-extractor/internal/extract"
	"github.com/dkitanovski/contract-extractor/internal/fields"
	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/ocr"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// stubRunner makes every pdftotext call return the same digital text layer,
// so the whole pipeline runs without external binaries.
type stubRunner struct {
	text string
}

func (s stubRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	if name == "pdftotext" {
		return []byte(s.text), nil, nil
	}
	return nil, nil, nil
}

// memJobs is an in-memory ExtractionJobRepository.
type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.ExtractionJob
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[uuid.UUID]*entity.ExtractionJob{}}
}

func (m *memJobs) CreateQueued(_ context.Context, sourceFile string, docType constants.DocType) (*entity.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := &entity.ExtractionJob{
		ID: uuid.New(), SourceFile: sourceFile, DocType: docType,
		Status: constants.JobStatusQueued, StartedAt: time.Now(),
	}
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memJobs) MarkRunning(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = constants.JobStatusRunning
	return nil
}

func (m *memJobs) FinishExtracted(_ context.Context, id uuid.UUID, fieldsJob *entity.ExtractionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = constants.JobStatusExtracted
	j.ContractNumber = fieldsJob.ContractNumber
	j.ContractDate = fieldsJob.ContractDate
	j.TaxID = fieldsJob.TaxID
	j.Resident = fieldsJob.Resident
	j.Business = fieldsJob.Business
	return nil
}

func (m *memJobs) FinishFailure(_ context.Context, id uuid.UUID, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = constants.JobStatusFailed
	j.ErrorMessage = &msg
	return nil
}

func (m *memJobs) ListResults(_ context.Context) ([]*entity.ExtractionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.ExtractionJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *memJobs) byStatus(status constants.JobStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.Status == status {
			n++
		}
	}
	return n
}

const digitalPage = "Договор за користење на јавни комуникациски услуги бр. 123456789 " +
	"склучен на 01.02.2023 ПРЕТПЛАТНИК физичко лице ✓ правно лице Име и презиме " +
	"Марко Марковски ЕМБГ: 1234567890123"

func newTestWorker(t *testing.T, inputDir string, jobs *memJobs) *Worker {
	t.Helper()
	extractor := ocr.NewExtractor(ocr.Config{}, stubRunner{text: digitalPage}, nil)
	registry := schema.Builtin()
	orch := extract.NewOrchestrator(
		registry,
		fields.New(0),
		customer.NewResolver(customer.Config{}, checkbox.NewDetector(nil), nil),
		imaging.NewTableCorrector(imaging.TableConfig{}, nil),
		extractor,
		nil,
	)
	proc := NewProcessor(extractor, orch, registry, nil)
	return NewWorker(common.BatchConfig{InputDir: inputDir, Workers: 2}, proc, jobs, nil)
}

func TestRunProcessesLoosePDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Договор за користење на јавни комуникациски услуги.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))

	jobs := newMemJobs()
	w := newTestWorker(t, dir, jobs)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, 1, jobs.byStatus(constants.JobStatusExtracted))
	assert.NoFileExists(t, src)

	archived := findArchived(t, filepath.Join(dir, "BACKUP"))
	require.Len(t, archived, 1)
	assert.Equal(t, "123456789.pdf", filepath.Base(archived[0]))
}

func TestRunProcessesZipBundle(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "Договор за користење на јавни комуникациски услуги.zip")
	writeZip(t, zipPath, map[string][]byte{
		"Договор за користење на јавни комуникациски услуги_1.pdf": []byte("%PDF-1.4"),
		"Договор за користење на јавни комуникациски услуги_2.pdf": []byte("%PDF-1.4"),
	})

	jobs := newMemJobs()
	w := newTestWorker(t, dir, jobs)
	require.NoError(t, w.Run(context.Background()))

	// the first member produced a complete result, so the second was not
	// extracted again
	assert.Equal(t, 1, jobs.byStatus(constants.JobStatusExtracted))

	archived := findArchived(t, filepath.Join(dir, "BACKUP"))
	names := map[string]bool{}
	for _, p := range archived {
		names[filepath.Base(p)] = true
	}
	assert.True(t, names["123456789_1.pdf"], "archived: %v", names)
	assert.True(t, names["123456789_2.pdf"], "archived: %v", names)
}

func TestRunSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	jobs := newMemJobs()
	w := newTestWorker(t, dir, jobs)
	require.NoError(t, w.Run(context.Background()))
	assert.Empty(t, jobs.jobs)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestDatedDir(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	dir, err := datedDir(root, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2026", "03", "07"), dir)
	assert.DirExists(t, dir)
}

func TestJobFieldsNullability(t *testing.T) {
	yes := true
	j := jobFields(extract.ExtractionResult{ContractNumber: "123456789", Resident: &yes})
	require.NotNil(t, j.ContractNumber)
	assert.Equal(t, "123456789", *j.ContractNumber)
	assert.Nil(t, j.ContractDate)
	assert.Nil(t, j.TaxID)
	require.NotNil(t, j.Resident)
	assert.True(t, *j.Resident)

	empty := jobFields(extract.ExtractionResult{})
	assert.Nil(t, empty.ContractNumber)
	assert.Nil(t, empty.Resident)
}

func TestUnpackZipFiltersNonPDF(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bundle.zip")
	writeZip(t, zipPath, map[string][]byte{
		"nested/contract.pdf": []byte("%PDF-1.4"),
		"readme.txt":          []byte("skip me"),
	})

	members, err := unpackZip(zipPath, t.TempDir())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "contract.pdf", filepath.Base(members[0]))
}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func findArchived(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}
