package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderTable writes rows with a light box style, or as markdown.
func renderTable(w io.Writer, header table.Row, rows []table.Row, markdown bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	if markdown {
		tw.RenderMarkdown()
		return
	}
	tw.Render()
}
