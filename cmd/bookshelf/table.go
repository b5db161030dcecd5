package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bookshelf/internal/book"
)

// renderBooks draws books as a table numbered from offset+1.
func renderBooks(books []book.Book, offset int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Author", "ISBN"})
	for i, b := range books {
		tw.AppendRow(table.Row{strconv.Itoa(offset + i + 1), b.Title, b.Author, b.ISBN})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 40},
	})
	return tw.Render()
}
