// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mikael/pricebook/internal/export"
	"github.com/mikael/pricebook/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBatch outputs a summary of the batch and its document states.
func (p *Printer) PrintBatch(state types.BatchState, docs []types.Document) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("State:     %s\n", state))
	sb.WriteString(fmt.Sprintf("Documents: %d\n\n", len(docs)))

	count := min(len(docs), maxItemsToShow)
	for i := 0; i < count; i++ {
		doc := docs[i]
		sb.WriteString(fmt.Sprintf("  • %s [%s] %s\n", doc.Filename, doc.MIMEType, doc.State))
	}
	if len(docs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(docs)-maxItemsToShow))
	}

	p.printBox("BATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a human-readable summary of a published result.
func (p *Printer) PrintResult(result *types.ExtractionResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Locations: %d   Resorts: %d\n", len(result.Locations), result.TotalResorts()))

	for _, loc := range result.Locations {
		sb.WriteString(fmt.Sprintf("\n%s\n", loc.Name))
		count := min(len(loc.Resorts), maxItemsToShow)
		for i := 0; i < count; i++ {
			resort := loc.Resorts[i]
			sb.WriteString(fmt.Sprintf("  • %s (%s, %s)\n", resort.ResortName, resort.Currency, resort.LocationType))
			for j := 0; j < min(len(resort.Rooms), 3); j++ {
				room := resort.Rooms[j]
				sb.WriteString(fmt.Sprintf("      %s: %s\n", room.Type, export.FormatAmount(room.Price, resort.Currency)))
			}
			if len(resort.Activities) > 0 {
				sb.WriteString(fmt.Sprintf("      activities: %d\n", len(resort.Activities)))
			}
		}
		if len(loc.Resorts) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(loc.Resorts)-maxItemsToShow))
		}
	}

	p.printBox("EXTRACTION RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintError outputs a run failure with its classified kind.
func (p *Printer) PrintError(err error) {
	if err == nil {
		return
	}
	p.printBox("RUN FAILED", err.Error())
}
