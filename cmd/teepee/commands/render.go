package commands

import (
	"fmt"
	"io"

	"teepee-scraper/internal/objects"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func unitLabel(unit *objects.Unit) string {
	label := unit.String()
	if unit.Type != nil {
		label = fmt.Sprintf("%s (%s)", label, unit.Type)
	}
	return label
}

// renderTree prints every unit indented under its parent, followed by its
// persons.
func renderTree(w io.Writer, roots []objects.Unit) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	l.SetOutputMirror(w)

	level := 0
	for i := range roots {
		roots[i].Walk(func(depth int, unit *objects.Unit) error {
			for ; level < depth; level++ {
				l.Indent()
			}
			for ; level > depth; level-- {
				l.UnIndent()
			}
			l.AppendItem(unitLabel(unit))

			if len(unit.Persons) > 0 {
				l.Indent()
				for _, person := range unit.Persons {
					l.AppendItem(fmt.Sprintf("· %s [%d]", person.Name, person.Id))
				}
				l.UnIndent()
			}
			return nil
		})
	}
	if l.Length() == 0 {
		fmt.Fprintln(w, "no units")
		return
	}
	l.Render()
}

func renderPersons(w io.Writer, persons []objects.Person) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Id", "Name"})
	for i, person := range persons {
		t.AppendRow(table.Row{i + 1, person.Id, person.Name})
	}
	t.AppendFooter(table.Row{"", "Total", len(persons)})
	t.Render()
}
