package plotpage

import (
	"fmt"
	"html/template"
	"io"
)

// Table renders an HTML table. Headers and cells are trusted HTML.
type Table struct {
	Headers []template.HTML
	Rows    [][]template.HTML
	Striped bool
}

// NewTable creates a new striped table.
func NewTable(headers ...template.HTML) *Table {
	return &Table{Headers: headers, Striped: true}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...template.HTML) *Table {
	t.Rows = append(t.Rows, cells)

	return t
}

// Render writes the table HTML.
func (t *Table) Render(w io.Writer) error {
	html, err := renderTemplate("table.html", tableData{
		Headers: t.Headers,
		Rows:    t.Rows,
		Striped: t.Striped,
	})
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(html))
	if err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}

// Link returns an escaped anchor element. An empty title omits the attribute.
func Link(href, title, text string) template.HTML {
	if title == "" {
		return template.HTML(fmt.Sprintf(`<a href="%s">%s</a>`,
			template.HTMLEscapeString(href), template.HTMLEscapeString(text)))
	}

	return template.HTML(fmt.Sprintf(`<a href="%s" title="%s">%s</a>`,
		template.HTMLEscapeString(href), template.HTMLEscapeString(title), template.HTMLEscapeString(text)))
}

// Text returns escaped text as HTML.
func Text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}
