package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/trellis"
)

// formatResultText renders the merged result as a readable report: metadata,
// variant distribution, symbols, and call relations.
func formatResultText(w io.Writer, result *trellis.AnalysisResult) {
	fmt.Fprintln(w, "Analysis Result")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Files: %d\n", result.Metadata.TotalFiles)
	fmt.Fprintf(w, "Symbols: %d\n", result.Metadata.TotalSymbols)
	fmt.Fprintf(w, "Call relations: %d\n", result.Metadata.TotalCallRelations)
	fmt.Fprintf(w, "Imports: %d, Exports: %d\n", len(result.ImportRelations), len(result.ExportRelations))
	fmt.Fprintln(w)

	if s := result.Summary; s != nil {
		if len(s.VariantDistribution) > 0 {
			fmt.Fprintln(w, "Variant distribution:")
			variants := make([]string, 0, len(s.VariantDistribution))
			for v := range s.VariantDistribution {
				variants = append(variants, v)
			}
			sort.Strings(variants)
			for _, v := range variants {
				fmt.Fprintf(w, "  %s: %.0f%%\n", v, s.VariantDistribution[v])
			}
		}
		fmt.Fprintf(w, "Avg calls/symbol: %.2f, avg imports/file: %.2f\n",
			s.AvgCallsPerSymbol, s.AvgImportsPerFile)
		fmt.Fprintln(w)
	}

	if len(result.Symbols) > 0 {
		fmt.Fprintln(w, "Symbols:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tKIND\tCLASS\tFILE\tLINE")
		for _, s := range result.Symbols {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\n",
				s.Name, s.Kind, s.ClassName, s.Location.FilePath, s.Location.Start.Line)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(result.CallRelations) > 0 {
		fmt.Fprintln(w, "Call relations:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  CALLER\tCALLEE\tTYPE\tLINE")
		for _, c := range result.CallRelations {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\n",
				participantLabel(c.Caller), participantLabel(c.Callee),
				c.CallType, c.Location.Start.Line)
		}
		tw.Flush()
	}
}

func participantLabel(p trellis.CallParticipant) string {
	if p.ClassName != "" {
		return p.ClassName + "." + p.Name
	}
	return p.Name
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
