package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"algocrafter/internal/presentation/legal"
	"algocrafter/internal/presentation/menu"
	"algocrafter/internal/presentation/navigation"
)

type menuItem struct {
	label string
	event menu.Event
}

var menuItems = []menuItem{
	{"AI Strategy Builder", menu.NavigateToAIBuilder{}},
	{"Create Strategy", menu.NavigateToCreateStrategy{}},
	{"My Strategies", menu.NavigateToStrategies{}},
	{"Backtest Results", menu.NavigateToBacktestResults{}},
	{"Market Data", menu.NavigateToMarketData{}},
	{"Settings", menu.NavigateToSettings{}},
	{"Legal", menu.NavigateToLegal{}},
}

type menuPage struct {
	pageBase
	vm     *menu.ViewModel
	cursor int
}

func (p *menuPage) title() string { return "AlgoCrafter" }
func (p *menuPage) help() string  { return "up/down move | enter open | esc exit" }

func (p *menuPage) key(msg tea.KeyMsg, r router) {
	switch msg.String() {
	case "up", "k":
		p.cursor = moveCursor(p.cursor, -1, len(menuItems))
	case "down", "j":
		p.cursor = moveCursor(p.cursor, 1, len(menuItems))
	case "enter":
		p.vm.HandleEvent(menuItems[p.cursor].event)
	case "esc":
		r.back()
	}
}

func (p *menuPage) effect(e any, r router) {
	switch e := e.(type) {
	case menu.MessageEffect:
		r.flash(e.Message)
	case menu.NavigateEffect:
		r.navigate(e.Destination)
	}
}

func (p *menuPage) view() string {
	lines := make([]string, len(menuItems))
	for i, it := range menuItems {
		lines[i] = cursorLine(i == p.cursor, it.label)
	}
	return strings.Join(lines, "\n")
}

func (p *menuPage) close() { p.vm.Close() }

type legalPage struct {
	pageBase
	vm  *legal.ViewModel
	cur legal.State
}

func (p *legalPage) title() string { return "Before you start" }
func (p *legalPage) help() string {
	return "1/2/3 accept | t/p/d read | a accept all | enter continue | esc back"
}

func (p *legalPage) key(msg tea.KeyMsg, r router) {
	switch msg.String() {
	case "1":
		p.vm.HandleEvent(legal.SetTosAccepted{Accepted: !p.cur.TosAccepted})
	case "2":
		p.vm.HandleEvent(legal.SetPrivacyAccepted{Accepted: !p.cur.PrivacyAccepted})
	case "3":
		p.vm.HandleEvent(legal.SetAIDisclaimerAccepted{Accepted: !p.cur.AIDisclaimerAccepted})
	case "t":
		p.vm.HandleEvent(legal.NavigateToTermsOfService{})
	case "p":
		p.vm.HandleEvent(legal.NavigateToPrivacyPolicy{})
	case "d":
		p.vm.HandleEvent(legal.NavigateToAIDisclaimer{})
	case "a":
		p.vm.HandleEvent(legal.SetAllAccepted{})
	case "enter":
		if !p.cur.AllAccepted {
			r.flash("Accept every document to continue")
			return
		}
		p.vm.HandleEvent(legal.NavigateNext{})
	case "esc":
		p.vm.HandleEvent(legal.NavigateBack{})
	}
}

func (p *legalPage) state(s any, _ router) {
	if st, ok := s.(legal.State); ok {
		p.cur = st
	}
}

func (p *legalPage) effect(e any, r router) {
	switch e := e.(type) {
	case legal.MessageEffect:
		r.flash(e.Message)
	case legal.OpenTermsOfServiceEffect:
		r.navigate(navigation.TermsOfService)
	case legal.OpenPrivacyPolicyEffect:
		r.navigate(navigation.PrivacyPolicy)
	case legal.OpenAIDisclaimerEffect:
		r.navigate(navigation.AIDisclaimer)
	case legal.NavigateBackEffect:
		r.back()
	case legal.NavigateNextEffect:
		r.navigateWithPopUp(navigation.Menu, navigation.LegalScreens)
	}
}

func (p *legalPage) view() string {
	return fmt.Sprintf("%s 1 Terms of Service\n%s 2 Privacy Policy\n%s 3 AI Disclaimer",
		checkbox(p.cur.TosAccepted), checkbox(p.cur.PrivacyAccepted), checkbox(p.cur.AIDisclaimerAccepted))
}

func (p *legalPage) close() { p.vm.Close() }

var documents = map[navigation.Destination]struct{ title, body string }{
	navigation.TermsOfService: {
		"Terms of Service",
		"AlgoCrafter is a research tool. Strategies and backtests are provided as is,\nwithout any warranty of future performance.",
	},
	navigation.PrivacyPolicy: {
		"Privacy Policy",
		"Strategies are stored on this machine only. Market data requests go to the\nconfigured exchange API without any account credentials.",
	},
	navigation.AIDisclaimer: {
		"AI Disclaimer",
		"Generated strategies can be wrong. Review every parameter before trading\nwith real funds.",
	},
}

// documentPage renders one static legal text.
type documentPage struct {
	pageBase
	dest navigation.Destination
}

func newDocumentPage(d navigation.Destination) *documentPage {
	return &documentPage{pageBase: newPageBase(), dest: d}
}

func (p *documentPage) title() string { return documents[p.dest].title }
func (p *documentPage) help() string  { return "esc back" }

func (p *documentPage) key(msg tea.KeyMsg, r router) {
	switch msg.String() {
	case "esc", "enter":
		r.back()
	}
}

func (p *documentPage) view() string { return documents[p.dest].body }
