package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRawJSON indents a server document without re-decoding it.
func writeRawJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// wantTable reports whether list output should be a table.
func (c *commandContext) wantTable(cmd *cobra.Command) bool {
	return !*c.json && isTerminal(cmd.OutOrStdout())
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	tw.SetCaption("%d rows", len(rows))

	return tw.Render()
}

func optionsTable(opts []aoi.AOIOption) string {
	rows := make([][]string, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, []string{o.Lot, o.RawWafer, o.Wafer})
	}
	return renderTable([]string{"Lot", "Wafer", "Key"}, rows, nil)
}

func summaryTable(list []aoi.WaferSummary) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.Lot, s.RawWafer, s.BubbleSize.String(), s.BondDieCount.String()})
	}
	return renderTable(
		[]string{"Lot", "Wafer", "Bubble Size", "Bond Die Count"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}
