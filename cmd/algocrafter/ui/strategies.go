package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/presentation/strategies"
)

// filterCycle is the order "f" walks through; the empty filter shows all.
var filterCycle = func() []string {
	out := []string{""}
	for _, t := range model.StrategyTypes() {
		out = append(out, t.String())
	}
	return out
}()

type strategiesPage struct {
	pageBase
	vm     *strategies.ViewModel
	cur    strategies.State
	cursor int
	filter int
}

func (p *strategiesPage) title() string { return "My Strategies" }
func (p *strategiesPage) help() string {
	if c := p.cur.DeleteConfirmation; c != nil && c.IsVisible {
		return "y delete | n keep"
	}
	return "space toggle | x delete | f filter | a active only | enter open | c create | r refresh | esc back"
}

func (p *strategiesPage) key(msg tea.KeyMsg, r router) {
	if c := p.cur.DeleteConfirmation; c != nil && c.IsVisible {
		switch msg.String() {
		case "y":
			p.vm.HandleEvent(strategies.ConfirmDelete{})
		case "n", "esc":
			p.vm.HandleEvent(strategies.DismissDeleteConfirmation{})
		}
		return
	}

	items := p.cur.FilteredStrategies()
	switch msg.String() {
	case "up", "k":
		p.cursor = moveCursor(p.cursor, -1, len(items))
	case "down", "j":
		p.cursor = moveCursor(p.cursor, 1, len(items))
	case " ":
		if len(items) > 0 {
			p.vm.HandleEvent(strategies.ToggleStrategyActive{StrategyID: items[p.cursor].ID})
		}
	case "x":
		if len(items) > 0 {
			it := items[p.cursor]
			p.vm.HandleEvent(strategies.ShowDeleteConfirmation{StrategyID: it.ID, StrategyName: it.Name})
		}
	case "enter":
		if len(items) > 0 {
			p.vm.HandleEvent(strategies.NavigateToStrategyDetail{StrategyID: items[p.cursor].ID})
		}
	case "f":
		p.filter = (p.filter + 1) % len(filterCycle)
		p.vm.HandleEvent(strategies.FilterByType{Type: filterCycle[p.filter]})
	case "a":
		p.vm.HandleEvent(strategies.ShowActiveOnly{ActiveOnly: !p.cur.ShowActiveOnly})
	case "c":
		p.vm.HandleEvent(strategies.NavigateToCreateStrategy{})
	case "r":
		p.vm.HandleEvent(strategies.Refresh{})
	case "e":
		p.vm.HandleEvent(strategies.DismissError{})
	case "esc":
		r.back()
	}
}

func (p *strategiesPage) state(s any, _ router) {
	st, ok := s.(strategies.State)
	if !ok {
		return
	}
	p.cur = st
	p.cursor = moveCursor(p.cursor, 0, len(st.FilteredStrategies()))
}

func (p *strategiesPage) effect(e any, r router) {
	switch e := e.(type) {
	case strategies.MessageEffect:
		r.flash(e.Message)
	case strategies.NavigateToDetailEffect:
		r.flash("Strategy details are not available here: " + e.StrategyID)
	case strategies.NavigateToCreateEffect:
		r.flash("Create Strategy coming soon")
	}
}

func (p *strategiesPage) view() string {
	if p.cur.IsLoading {
		return mutedStyle.Render("Loading strategies...")
	}
	var b strings.Builder
	if p.cur.Error != "" {
		b.WriteString(errorStyle.Render(p.cur.Error) + "\n\n")
	}
	filter := "all types"
	if p.cur.FilterType != "" {
		filter = p.cur.FilterType
	}
	fmt.Fprintf(&b, "%d of %d active | %s", p.cur.ActiveStrategiesCount(), len(p.cur.Strategies), filter)
	if p.cur.ShowActiveOnly {
		b.WriteString(" | active only")
	}
	b.WriteString("\n\n")

	items := p.cur.FilteredStrategies()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("No strategies match."))
	}
	for i, it := range items {
		marker := " "
		if it.IsActive {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-28s %-16s %s", marker, it.Name, it.Type, mutedStyle.Render(it.LastUpdated))
		if it.IsRecentlyModified {
			line += " new"
		}
		b.WriteString(cursorLine(i == p.cursor, line) + "\n")
	}

	if c := p.cur.DeleteConfirmation; c != nil && c.IsVisible {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Delete '%s'? (y/n)", c.StrategyName)))
	}
	return b.String()
}

func (p *strategiesPage) close() { p.vm.Close() }
