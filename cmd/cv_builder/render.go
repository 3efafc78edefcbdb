package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a document to HTML or PDF",
	Long: `Render a DocumentData JSON file, or an editor snapshot with document, style and sections,
with one of the built-in templates. The output format follows the --out extension.`,
	RunE: runRender,
}

var (
	renderInFile     string
	renderTemplate   string
	renderStyleFile  string
	renderOutFile    string
	renderChromePath string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInFile, "in", "i", "", "Path to the document JSON file (required)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Template id: modern, classic, minimal, creative")
	renderCmd.Flags().StringVarP(&renderStyleFile, "style", "s", "", "Path to a style JSON file")
	renderCmd.Flags().StringVarP(&renderOutFile, "out", "o", "", "Output file, .html or .pdf (default: <out_dir>/CV_<Prenom>_<Nom>.pdf)")
	renderCmd.Flags().StringVar(&renderChromePath, "chrome", "", "Chrome executable used for PDF output")

	_ = renderCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadFileConfig(config.Config{})
	if err != nil {
		return err
	}
	flags := config.Config{Template: renderTemplate, StyleFile: renderStyleFile, ChromePath: renderChromePath, Verbose: verbose}
	cfg = flags.MergeWithDefaults(cfg)

	in, err := loadRenderInput(renderInFile)
	if err != nil {
		return err
	}
	if cfg.StyleFile != "" {
		patch, err := loadStylePatch(cfg.StyleFile)
		if err != nil {
			return err
		}
		in.Style = in.Style.Apply(patch)
	}
	if cfg.Template != "" {
		in.Style.Template = cfg.Template
	}

	if cfg.Verbose {
		printSummary(cmd, in)
	}

	out := renderOutFile

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	templates := rendering.DefaultRegistry()

	if out == "" {
		// Default location: <out_dir>/CV_<Prenom>_<Nom>.pdf
		out, err = newPDFPipeline(templates, cfg).ExportFile(ctx, "", in, cfg.OutDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s with template %s to %s\n", in.Document.FullName(), templateName(in), out)
		return nil
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".html", ".htm":
		html, err := templates.RenderString(in)
		if err != nil {
			return err
		}
		if err := export.WriteFile(out, []byte(html)); err != nil {
			return err
		}
	case ".pdf":
		res, err := newPDFPipeline(templates, cfg).Export(ctx, "", in)
		if err != nil {
			return err
		}
		if err := export.WriteFile(out, res.PDF); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q, use .html or .pdf", filepath.Ext(out))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s with template %s to %s\n", in.Document.FullName(), templateName(in), out)
	return nil
}

func newPDFPipeline(templates *rendering.Registry, cfg config.Config) *export.Pipeline {
	exporter := export.NewChromeExporter(export.WithExecPath(cfg.ChromePath), export.WithVerbose(cfg.Verbose))
	return export.NewPipeline(templates, exporter, nil)
}

// loadRenderInput reads either a bare DocumentData or a full render input.
func loadRenderInput(path string) (rendering.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rendering.Input{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return rendering.Input{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	in := rendering.Input{Style: style.Default()}
	docData := data
	if raw, ok := envelope["document"]; ok {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&in); err != nil {
			return rendering.Input{}, fmt.Errorf("failed to parse render input %s: %w", path, err)
		}
		in.Style = in.Style.WithDefaults()
		docData = raw
	}

	if err := schemas.ValidateDocument(docData); err != nil {
		return rendering.Input{}, fmt.Errorf("invalid document %s: %w", path, err)
	}
	if in.Document == nil {
		var doc types.DocumentData
		if err := json.Unmarshal(docData, &doc); err != nil {
			return rendering.Input{}, fmt.Errorf("failed to parse document %s: %w", path, err)
		}
		in.Document = &doc
	}
	return in, nil
}

// loadStylePatch reads a partial style; absent keys keep their current value.
func loadStylePatch(path string) (style.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return style.Patch{}, fmt.Errorf("failed to read style %s: %w", path, err)
	}
	if err := schemas.ValidateStyle(data); err != nil {
		return style.Patch{}, fmt.Errorf("invalid style %s: %w", path, err)
	}
	var patch style.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return style.Patch{}, fmt.Errorf("failed to parse style %s: %w", path, err)
	}
	return patch, nil
}

func templateName(in rendering.Input) string {
	if in.Document != nil && in.Document.Kind == types.KindLetter {
		return rendering.TemplateLetter
	}
	return in.Style.WithDefaults().Template
}
