package cmd

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/analysis"
)

// outputStyles holds the styles used for command output. Colors are only
// emitted when the writer is a color-capable terminal.
type outputStyles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	number  lipgloss.Style
	border  lipgloss.Border
	frame   lipgloss.Style
}

func newStyles(tty bool) outputStyles {
	var r *lipgloss.Renderer
	if tty {
		r = lipgloss.NewRenderer(os.Stdout)
	} else {
		r = lipgloss.NewRenderer(io.Discard)
	}

	s := outputStyles{
		heading: r.NewStyle().Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("8")),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		number:  r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		border:  lipgloss.ASCIIBorder(),
		frame:   r.NewStyle(),
	}
	if tty {
		s.heading = s.heading.Foreground(lipgloss.Color("12"))
		s.header = s.header.Foreground(lipgloss.Color("12"))
		s.border = lipgloss.RoundedBorder()
		s.frame = s.frame.Foreground(lipgloss.Color("8"))
	}
	return s
}

// renderTable lays out result as a two column table.
func renderTable(s outputStyles, result analysis.Result) string {
	t := table.New().
		Border(s.border).
		BorderStyle(s.frame).
		Headers("Subcategory", "Files").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case col == 1:
				return s.number
			default:
				return s.cell
			}
		})

	for _, c := range result {
		t.Row(c.Category, strconv.Itoa(c.Count))
	}
	t.Row("Total", strconv.Itoa(result.Total()))

	return t.String()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
