// Package render formats notes and rules for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yoav-lavi/pile/internal/catalog"
	"github.com/yoav-lavi/pile/internal/models"
)

// Printer writes styled lines to w. Colors are dropped automatically when w
// is not a terminal.
type Printer struct {
	w io.Writer

	name     lipgloss.Style
	contents lipgloss.Style
	time     lipgloss.Style
	muted    lipgloss.Style
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		name:     r.NewStyle().Foreground(lipgloss.Color("2")),
		contents: r.NewStyle().Foreground(lipgloss.Color("4")),
		time:     r.NewStyle().Faint(true),
		muted:    r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Note prints "- name: contents (time)".
func (p *Printer) Note(n models.Note) error {
	_, err := fmt.Fprintf(p.w, "- %s: %s (%s)\n",
		p.name.Render(n.Name),
		p.contents.Render(n.Contents),
		p.time.Render(n.Time))
	return err
}

// Notes prints every note in order.
func (p *Printer) Notes(notes []models.Note) error {
	for _, n := range notes {
		if err := p.Note(n); err != nil {
			return err
		}
	}
	return nil
}

// Rule prints "- name [Kind]: kw1, kw2".
func (p *Printer) Rule(r models.Rule) error {
	keywords := strings.Join(r.Keywords, ", ")
	if keywords == "" {
		keywords = p.muted.Render("(no keywords)")
	}
	_, err := fmt.Fprintf(p.w, "- %s [%s]: %s\n", p.name.Render(r.Name), r.Kind, keywords)
	return err
}

// RuleCounts prints one line per rule with its tagged-note count.
func (p *Printer) RuleCounts(counts []catalog.RuleCount) error {
	for _, c := range counts {
		noun := "notes"
		if c.Notes == 1 {
			noun = "note"
		}
		if _, err := fmt.Fprintf(p.w, "- %s [%s]: %s\n",
			p.name.Render(c.Name), c.Kind, p.contents.Render(fmt.Sprintf("%d %s", c.Notes, noun))); err != nil {
			return err
		}
	}
	return nil
}

// Line prints a plain status message.
func (p *Printer) Line(format string, args ...any) error {
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}
