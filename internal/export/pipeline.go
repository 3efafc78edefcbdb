// Package export renders documents to PDF. A failed export never leaves a partial file behind.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// pdfMagic starts every valid PDF file
var pdfMagic = []byte("%PDF-")

// Result is a successful export.
type Result struct {
	FileName   string
	PDF        []byte
	ArchiveKey string
	ArchiveURL string
}

// ArchiveURLTTL is how long the download link of an archived export stays valid.
const ArchiveURLTTL = 15 * time.Minute

// Pipeline renders an Input with its template and prints it.
type Pipeline struct {
	templates *rendering.Registry
	exporter  Exporter
	archive   Archive
}

// NewPipeline creates a Pipeline. archive may be nil.
func NewPipeline(templates *rendering.Registry, exporter Exporter, archive Archive) *Pipeline {
	return &Pipeline{templates: templates, exporter: exporter, archive: archive}
}

// Export renders in, prints it and, when an archive is configured, stores a copy.
// Archive failures are logged and do not fail the export.
func (p *Pipeline) Export(ctx context.Context, userID string, in rendering.Input) (*Result, error) {
	html, err := p.templates.RenderString(in)
	if err != nil {
		return nil, &ExportError{Stage: StageRender, Message: "failed to render document", Cause: err}
	}

	pdf, err := p.exporter.Export(ctx, html)
	if err != nil {
		return nil, &ExportError{Stage: StagePrint, Message: "failed to print document", Cause: err}
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, &ExportError{Stage: StageVerify, Message: "output is not a PDF"}
	}

	res := &Result{FileName: FileName(in.Document), PDF: pdf}
	if p.archive != nil {
		p.store(ctx, userID, res)
	}
	return res, nil
}

// store archives res and attaches its key and download link. Failures are logged only.
func (p *Pipeline) store(ctx context.Context, userID string, res *Result) {
	key, err := p.archive.Put(ctx, userID, res.FileName, res.PDF)
	if err != nil {
		log.Printf("[export] archive failed for %s: %v", res.FileName, err)
		return
	}
	res.ArchiveKey = key

	url, err := p.archive.DownloadURL(ctx, key, ArchiveURLTTL)
	if err != nil {
		log.Printf("[export] presign failed for %s: %v", key, err)
		return
	}
	res.ArchiveURL = url
}

// ExportFile exports in to dir and returns the path of the written file.
func (p *Pipeline) ExportFile(ctx context.Context, userID string, in rendering.Input, dir string) (string, error) {
	res, err := p.Export(ctx, userID, in)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, res.FileName)
	if err := WriteFile(path, res.PDF); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes data to path through a temporary file renamed into place, so that
// path either holds the complete content or is left untouched.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return &ExportError{Stage: StageWrite, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &ExportError{Stage: StageWrite, Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Stage: StageWrite, Message: "failed to close temp file", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &ExportError{Stage: StageWrite, Message: fmt.Sprintf("failed to move file to %s", path), Cause: err}
	}
	return nil
}

// FileName returns CV_<Prenom>_<Nom>.pdf or Lettre_<Prenom>_<Nom>.pdf.
func FileName(doc *types.DocumentData) string {
	parts := []string{"CV"}
	if doc != nil {
		if doc.Kind == types.KindLetter {
			parts[0] = "Lettre"
		}
		for _, s := range []string{doc.FirstName, doc.LastName} {
			if s = sanitizeNamePart(s); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "_") + ".pdf"
}

// sanitizeNamePart keeps letters, digits and hyphens, joining words with hyphens
func sanitizeNamePart(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
	})
	return strings.Join(words, "-")
}
