package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"algocrafter/internal/presentation/cleansetup"
	"algocrafter/internal/presentation/home"
	"algocrafter/internal/presentation/navigation"
)

type homePage struct {
	pageBase
	vm *home.ViewModel
}

func (p *homePage) title() string { return "Clean Setup Demo" }
func (p *homePage) help() string  { return "1 navigation in state | 2 navigation as effects | esc back" }

func (p *homePage) key(msg tea.KeyMsg, _ router) {
	switch msg.String() {
	case "1":
		p.vm.HandleEvent(home.NavigateToCleanSetupNoEffects{})
	case "2":
		p.vm.HandleEvent(home.NavigateToCleanSetupWithEffects{})
	case "esc":
		p.vm.HandleEvent(home.NavigateBack{})
	}
}

// state consumes the navigation target and reports it handled.
func (p *homePage) state(s any, r router) {
	st, ok := s.(home.State)
	if !ok || st.NavTarget == home.NavNone {
		return
	}
	switch st.NavTarget {
	case home.NavBack:
		r.back()
	case home.NavCleanSetupNoEffects:
		r.navigate(navigation.CleanSetupNoEffects)
	case home.NavCleanSetupWithEffects:
		r.navigate(navigation.CleanSetupWithEffects)
	}
	p.vm.HandleEvent(home.NavigationHandled{})
}

func (p *homePage) view() string {
	return "1  Clean setup, snackbar and navigation kept in state\n2  Clean setup, messages and navigation sent as effects"
}

func (p *homePage) close() { p.vm.Close() }

func renderItems(items []cleansetup.Item, cursor int) string {
	const window = 10
	start := cursor - window/2
	if start > len(items)-window {
		start = len(items) - window
	}
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(items) {
		end = len(items)
	}
	var b strings.Builder
	for i := start; i < end; i++ {
		it := items[i]
		star := " "
		if it.IsFavourite {
			star = "*"
		}
		b.WriteString(cursorLine(i == cursor, fmt.Sprintf("%s %s", star, it.Name)) + "\n")
	}
	fmt.Fprintf(&b, "%s", mutedStyle.Render(fmt.Sprintf("%d items", len(items))))
	return b.String()
}

type cleanSetupPage struct {
	pageBase
	vm     *cleansetup.NoEffectsViewModel
	cur    cleansetup.NoEffectsState
	cursor int
}

func (p *cleanSetupPage) title() string { return "Clean Setup (state)" }
func (p *cleanSetupPage) help() string {
	return "space favourite | r refresh | h home | esc back"
}

func (p *cleanSetupPage) key(msg tea.KeyMsg, _ router) {
	switch msg.String() {
	case "up", "k":
		p.cursor = moveCursor(p.cursor, -1, len(p.cur.Items))
	case "down", "j":
		p.cursor = moveCursor(p.cursor, 1, len(p.cur.Items))
	case " ":
		if len(p.cur.Items) > 0 {
			p.vm.HandleEvent(cleansetup.ToggleFavourite{Item: p.cur.Items[p.cursor]})
		}
	case "r":
		p.vm.HandleEvent(cleansetup.Refresh{})
	case "h":
		p.vm.HandleEvent(cleansetup.NavigateToHome{})
	case "esc":
		p.vm.HandleEvent(cleansetup.NavigateBack{})
	}
}

func (p *cleanSetupPage) state(s any, r router) {
	st, ok := s.(cleansetup.NoEffectsState)
	if !ok {
		return
	}
	p.cur = st
	p.cursor = moveCursor(p.cursor, 0, len(st.Items))

	if st.SnackbarMessage != "" {
		r.flash(st.SnackbarMessage)
		p.vm.HandleEvent(cleansetup.SnackbarShown{})
	}
	switch st.NavTarget {
	case cleansetup.NavBack:
		r.back()
	case cleansetup.NavHome:
		r.navigateBackToStart(navigation.Home)
	default:
		return
	}
	p.vm.HandleEvent(cleansetup.NavigationHandled{})
}

func (p *cleanSetupPage) view() string {
	if p.cur.IsLoading {
		return mutedStyle.Render("Loading...")
	}
	return renderItems(p.cur.Items, p.cursor)
}

func (p *cleanSetupPage) close() { p.vm.Close() }

type cleanSetupEffectsPage struct {
	pageBase
	vm     *cleansetup.EffectsViewModel
	cur    cleansetup.EffectsState
	cursor int
}

func (p *cleanSetupEffectsPage) title() string { return "Clean Setup (effects)" }
func (p *cleanSetupEffectsPage) help() string {
	return "space favourite | r refresh | h home | esc back"
}

func (p *cleanSetupEffectsPage) key(msg tea.KeyMsg, _ router) {
	switch msg.String() {
	case "up", "k":
		p.cursor = moveCursor(p.cursor, -1, len(p.cur.Items))
	case "down", "j":
		p.cursor = moveCursor(p.cursor, 1, len(p.cur.Items))
	case " ":
		if len(p.cur.Items) > 0 {
			p.vm.HandleEvent(cleansetup.ToggleFavourite{Item: p.cur.Items[p.cursor]})
		}
	case "r":
		p.vm.HandleEvent(cleansetup.Refresh{})
	case "h":
		p.vm.HandleEvent(cleansetup.NavigateToHome{})
	case "esc":
		p.vm.HandleEvent(cleansetup.NavigateBack{})
	}
}

func (p *cleanSetupEffectsPage) state(s any, _ router) {
	if st, ok := s.(cleansetup.EffectsState); ok {
		p.cur = st
		p.cursor = moveCursor(p.cursor, 0, len(st.Items))
	}
}

func (p *cleanSetupEffectsPage) effect(e any, r router) {
	switch e := e.(type) {
	case cleansetup.MessageEffect:
		r.flash(e.Message)
	case cleansetup.NavigateBackEffect:
		r.back()
	case cleansetup.NavigateToHomeEffect:
		r.navigateBackToStart(navigation.Home)
	}
}

func (p *cleanSetupEffectsPage) view() string {
	if p.cur.IsLoading {
		return mutedStyle.Render("Loading...")
	}
	return renderItems(p.cur.Items, p.cursor)
}

func (p *cleanSetupEffectsPage) close() { p.vm.Close() }
