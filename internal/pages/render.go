package pages

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
)

// printer accumulates the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func renderHeader(p *printer, title string, v View) {
	p.printf("== %s ==\n", title)
	switch v.Status {
	case StatusLoading:
		p.printf("Loading...\n")
	case StatusSuccess:
		if v.Message != "" {
			p.printf("OK: %s\n", v.Message)
		}
	case StatusFailed:
		p.printf("Error: %s\n", v.Error)
	}
	for _, d := range v.Details {
		p.printf("  - %s\n", d)
	}
	for _, field := range slices.Sorted(maps.Keys(v.FieldErrors)) {
		p.printf("  %s: %s\n", field, v.FieldErrors[field])
	}
}

// table writes aligned rows. The first row is the header.
func table(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(tw, cell); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (p *printer) table(rows [][]string) {
	if p.err != nil {
		return
	}
	p.err = table(p.w, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
