package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	platformerrors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// render writes v in the selected structured format, or calls text for
// the human-readable form.
func render(w io.Writer, format string, v any, text func(w io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// renderError writes err to w. Structured formats get the flattened
// platform error; text gets a single line.
func renderError(w io.Writer, format string, err error) error {
	switch format {
	case outputJSON, outputYAML:
		return render(w, format, platformerrors.ToJSON(err), nil)
	default:
		_, werr := fmt.Fprintf(w, "error: %v\n", err)
		return werr
	}
}

// table writes tab-separated rows aligned into columns.
func table(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// shortID abbreviates an object id for text output.
func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// firstLine returns the first line of s.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
