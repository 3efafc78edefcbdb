// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-builder/internal/sections"
	"github.com/jonathan/cv-builder/internal/style"
	"github.com/jonathan/cv-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out      io.Writer
	registry *sections.Registry
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, registry: sections.DefaultRegistry()}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s%s │\n", truncate(line, boxWidth-4), strings.Repeat(" ", pad(line, boxWidth-4)))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, ending with "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func pad(s string, n int) int {
	return max(n-utf8.RuneCountInString(truncate(s, n)), 0)
}

// PrintDocument outputs a summary of a résumé or cover letter.
func (p *Printer) PrintDocument(doc *types.DocumentData) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", doc.FullName()))
	if doc.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Title))
	}
	if doc.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", doc.Email))
	}

	if doc.Kind == types.KindLetter {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", doc.Company))
		sb.WriteString(fmt.Sprintf("Position: %s\n", doc.Position))
		p.printBox("COVER LETTER", strings.TrimSuffix(sb.String(), "\n"))
		return
	}

	if len(doc.Experiences) > 0 {
		sb.WriteString("\nExperiences:\n")
		count := min(len(doc.Experiences), maxItemsToShow)
		for i := 0; i < count; i++ {
			exp := doc.Experiences[i]
			sb.WriteString(fmt.Sprintf("  • %s, %s", exp.Position, exp.Company))
			if exp.Current {
				sb.WriteString(" (en cours)")
			}
			sb.WriteString("\n")
		}
		if len(doc.Experiences) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Experiences)-maxItemsToShow))
		}
	}

	if len(doc.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("\nSkills:   %s\n", strings.Join(doc.Skills, ", ")))
	}

	p.printBox("RÉSUMÉ", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSections outputs the section order with visibility markers.
func (p *Printer) PrintSections(list []sections.Section) {
	if len(list) == 0 {
		return
	}

	var sb strings.Builder
	for i, s := range list {
		label := string(s.Type)
		if entry, err := p.registry.Lookup(s.Type); err == nil {
			label = entry.Label
		}
		mark := "✓"
		if !s.Visible {
			mark = "✗"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s", mark, i+1, label))
		if i < len(list)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SECTIONS", sb.String())
}

// PrintStyle outputs the effective style.
func (p *Printer) PrintStyle(st style.State) {
	st = st.WithDefaults()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Template: %s\n", st.Template))
	sb.WriteString(fmt.Sprintf("Colors:   %s / %s\n", st.PrimaryColor, st.SecondaryColor))
	sb.WriteString(fmt.Sprintf("Font:     %s x%.2f\n", st.FontFamily, st.FontScale))
	sb.WriteString(fmt.Sprintf("Photo:    x%.2f\n", st.PhotoScale))
	sb.WriteString(fmt.Sprintf("Spacing:  x%.2f", st.SpacingScale))

	p.printBox("STYLE", sb.String())
}
