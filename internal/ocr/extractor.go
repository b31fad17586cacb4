// Package ocr shells out to the poppler and tesseract binaries to turn
// contract PDFs into text and page rasters. All entry points accept a
// context so a stuck binary can be cancelled from above.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // default "mkd"
	DPI      int    // rasterization DPI for scanned PDFs, default 300

	TessdataDir string
	PSM         int // 6 is good for uniform block of text
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "mkd"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// NativeText pulls the embedded text layer of a PDF. Pages are separated
// by form feeds, which is pdftotext's default.
func (e *Extractor) NativeText(ctx context.Context, path string) (string, int, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext %q: %w (%s)", path, err, truncate(string(errb), 512))
	}
	text := string(out)
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}

// scannedTextFloor is the minimum count of letters or digits a text layer
// needs before we trust it; anything thinner is treated as a scan.
const scannedTextFloor = 40

// IsScanned reports whether a PDF carries no usable text layer and must go
// through rasterization and OCR instead.
func IsScanned(nativeText string) bool {
	var n int
	for _, r := range nativeText {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= scannedTextFloor {
				return false
			}
		}
	}
	return true
}

// RenderPage rasterizes a single 1-based page to grayscale via pdftoppm
// and decodes it.
func (e *Extractor) RenderPage(ctx context.Context, path string, page int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "ce-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("temp dir cleanup failed", "path", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	pageArg := fmt.Sprintf("%d", page)
	// pdftoppm -gray -r 300 -f N -l N -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-gray", "-r", fmt.Sprintf("%d", e.cfg.DPI), "-f", pageArg, "-l", pageArg, "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm %q: %w (%s)", path, err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d of %q", page, path)
	}
	sort.Strings(matches)

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

// PageOCR renders the given page and runs tesseract over it.
func (e *Extractor) PageOCR(ctx context.Context, path string, page int) (string, error) {
	img, err := e.RenderPage(ctx, path, page)
	if err != nil {
		return "", err
	}
	return e.ImageOCR(ctx, img)
}

// ImageOCR writes an in-memory image out as PNG and runs tesseract on it.
// The table pipeline uses this for its second pass over corrected crops.
func (e *Extractor) ImageOCR(ctx context.Context, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "ce-ocr-*.png")
	if err != nil {
		return "", err
	}
	name := f.Name()
	defer func() {
		if rmErr := os.Remove(name); rmErr != nil {
			e.logger.Warn("temp file cleanup failed", "path", name, "error", rmErr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return e.fileOCR(ctx, name)
}

func (e *Extractor) fileOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language, "--psm", fmt.Sprintf("%d", e.cfg.PSM)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang> --psm <n>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
