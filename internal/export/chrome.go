package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultPrintTimeout bounds browser startup plus printing of one page.
const DefaultPrintTimeout = 60 * time.Second

// A4 paper size in inches
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// Exporter turns a complete HTML page into PDF bytes.
type Exporter interface {
	Export(ctx context.Context, html string) ([]byte, error)
}

// ChromeExporter prints pages with a headless Chrome. Requires Chrome/Chromium on the host.
type ChromeExporter struct {
	execPath string
	timeout  time.Duration
	verbose  bool
}

// ChromeOption configures a ChromeExporter.
type ChromeOption func(*ChromeExporter)

// WithExecPath uses the browser binary at path instead of the one found on PATH.
func WithExecPath(path string) ChromeOption {
	return func(c *ChromeExporter) { c.execPath = path }
}

// WithTimeout overrides DefaultPrintTimeout.
func WithTimeout(d time.Duration) ChromeOption {
	return func(c *ChromeExporter) { c.timeout = d }
}

// WithVerbose logs each print.
func WithVerbose(v bool) ChromeOption {
	return func(c *ChromeExporter) { c.verbose = v }
}

// NewChromeExporter creates an exporter.
func NewChromeExporter(opts ...ChromeOption) *ChromeExporter {
	c := &ChromeExporter{timeout: DefaultPrintTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export loads html from a temporary file and prints it to an A4 PDF with backgrounds.
func (c *ChromeExporter) Export(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "cv-export-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write page: %w", err)
	}

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser printing failed: %w", err)
	}

	if c.verbose {
		log.Printf("[export] printed %d bytes in %v", len(pdf), time.Since(start))
	}
	return pdf, nil
}
