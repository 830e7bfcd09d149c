package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// renderRows renders the reconciled rows as a terminal table, one source
// column per file, color coded by agreement class.
func renderRows(rows []model.Row, sourceNames []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := table.Row{"Feature"}
	for i, name := range sourceNames {
		if name == "" {
			name = fmt.Sprintf("Source %d", i+1)
		}
		header = append(header, name)
	}
	header = append(header, "Final", "Notes")
	tw.AppendHeader(header)

	for _, row := range rows {
		r := table.Row{colorize(row.Class, row.Feature)}
		for _, v := range row.Values {
			r = append(r, v)
		}
		for len(r) < len(sourceNames)+1 {
			r = append(r, "")
		}
		r = append(r, colorize(row.Class, row.FinalValue), row.Tooltip)
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AlignHeader: text.AlignLeft, WidthMax: 48},
		{Number: len(sourceNames) + 3, WidthMax: 40},
	})
	return tw.Render()
}

func colorize(class model.Agreement, s string) string {
	switch class {
	case model.AgreementFull:
		return text.FgGreen.Sprint(s)
	case model.AgreementPartial:
		return text.FgYellow.Sprint(s)
	case model.AgreementNone:
		return text.FgRed.Sprint(s)
	default:
		return s
	}
}

// renderMetrics renders the aggregate summary below the row table.
func renderMetrics(m model.Metrics, sourceNames []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Total features", m.TotalFeatures})
	tw.AppendRow(table.Row{"Full agreement", text.FgGreen.Sprint(m.SameCount)})
	tw.AppendRow(table.Row{"Partial agreement", text.FgYellow.Sprint(m.PartialCount)})
	tw.AppendRow(table.Row{"Disagreement", text.FgRed.Sprint(m.DiffCount)})
	tw.AppendRow(table.Row{"Missing cells", m.MissingCellCount})
	for i, pct := range m.DiffPercents {
		name := fmt.Sprintf("Source %d", i+2)
		if i+1 < len(sourceNames) && sourceNames[i+1] != "" {
			name = sourceNames[i+1]
		}
		tw.AppendRow(table.Row{fmt.Sprintf("Diff vs reference (%s)", name), pct})
	}
	return tw.Render()
}
