// Package output provides utilities for formatting and displaying simulation
// result distributions.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/mortgage-simulator/internal/results"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable table of
// the box statistics of every condition in chart.
func PrettyFormat(w io.Writer, chart results.Chart, tag language.Tag) error {
	p := message.NewPrinter(tag)

	if _, err := fmt.Fprintf(w, "--- %s ---\n", chart.Title); err != nil {
		return err
	}
	if len(chart.Groups) == 0 {
		_, err := fmt.Fprintln(w, "No results")
		return err
	}

	if _, err := fmt.Fprintf(w, "Condition | Trials | Min | Q1 | Median | Q3 | Max | Mean\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "_________ | ______ | ___ | __ | ______ | __ | ___ | ____\n"); err != nil {
		return err
	}

	verb := "%.2f"
	if chart.Metric.IsRate() {
		verb = "%.4f"
	}
	for _, g := range chart.Groups {
		s := g.Summary
		if s.Count == 0 {
			if _, err := fmt.Fprintf(w, "%s | 0 | - | - | - | - | - | -\n", g.Name); err != nil {
				return err
			}
			continue
		}
		row := p.Sprintf("%s | %d | "+verb+" | "+verb+" | "+verb+" | "+verb+" | "+verb+" | "+verb+"\n",
			g.Name, s.Count, s.Min, s.Q1, s.Median, s.Q3, s.Max, s.Mean)
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat writes one row per trial and one column per condition. Columns
// of conditions with fewer trials are left empty.
func CsvFormat(w io.Writer, series []results.Series) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(series)+1)
	header = append(header, "trial")
	rows := 0
	for _, s := range series {
		header = append(header, s.Name)
		if len(s.Values) > rows {
			rows = len(s.Values)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		record := make([]string, 0, len(series)+1)
		record = append(record, strconv.Itoa(i+1))
		for _, s := range series {
			if i < len(s.Values) {
				record = append(record, strconv.FormatFloat(s.Values[i], 'f', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
