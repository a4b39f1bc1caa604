// Package navigation holds the screen destinations and a back-stack
// navigator.
package navigation

import (
	"sync"

	"algocrafter/internal/flow"
)

type Destination string

const (
	Menu       Destination = "menu"
	Strategies Destination = "strategies"
	MarketData Destination = "market_data"

	// LegalScreens is the nested onboarding graph. Its start is Legal.
	LegalScreens   Destination = "legal_screens"
	Legal          Destination = "legal"
	TermsOfService Destination = "terms_of_service"
	PrivacyPolicy  Destination = "privacy_policy"
	AIDisclaimer   Destination = "ai_disclaimer"

	Home                  Destination = "home"
	CleanSetupNoEffects   Destination = "clean_setup_no_effects"
	CleanSetupWithEffects Destination = "clean_setup_with_effects"
)

// Destinations lists every routable destination. Graph routes are not
// included.
func Destinations() []Destination {
	return []Destination{
		Menu, Strategies, MarketData,
		Legal, TermsOfService, PrivacyPolicy, AIDisclaimer,
		Home, CleanSetupNoEffects, CleanSetupWithEffects,
	}
}

// Graph returns the nested graph d belongs to, or d itself.
func (d Destination) Graph() Destination {
	switch d {
	case Legal, TermsOfService, PrivacyPolicy, AIDisclaimer:
		return LegalScreens
	default:
		return d
	}
}

// resolve maps a graph route onto its start destination.
func resolve(d Destination) Destination {
	if d == LegalScreens {
		return Legal
	}
	return d
}

// Navigator is a back stack of destinations. The top of the stack is the
// visible screen and is published through Current.
type Navigator struct {
	mu      sync.Mutex
	start   Destination
	stack   []Destination
	current *flow.MutableState[Destination]
}

func NewNavigator(start Destination) *Navigator {
	start = resolve(start)
	return &Navigator{
		start:   start,
		stack:   []Destination{start},
		current: flow.NewMutableState(start),
	}
}

// Current emits the visible destination after every change.
func (n *Navigator) Current() flow.Observable[Destination] { return n.current }

func (n *Navigator) Top() Destination { return n.current.Value() }

// BackStack returns a copy of the stack, bottom first.
func (n *Navigator) BackStack() []Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Destination(nil), n.stack...)
}

func (n *Navigator) Navigate(d Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = append(n.stack, resolve(d))
	n.publishLocked()
}

// NavigateWithPopUp pops every entry down to and including popUpTo, then
// pushes d. popUpTo may be a graph route. When it is not on the stack only d
// is pushed.
func (n *Navigator) NavigateWithPopUp(d, popUpTo Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i := n.popIndexLocked(popUpTo); i >= 0 {
		n.stack = n.stack[:i]
	}
	n.stack = append(n.stack, resolve(d))
	n.publishLocked()
}

// NavigateWithClearBackstack leaves d as the only entry.
func (n *Navigator) NavigateWithClearBackstack(d Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = []Destination{resolve(d)}
	n.publishLocked()
}

// NavigateBackToStart keeps the start destination, drops everything above
// it and pushes d unless d is the start itself.
func (n *Navigator) NavigateBackToStart(d Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d = resolve(d)
	n.stack = n.stack[:1]
	if n.stack[0] != d {
		n.stack = append(n.stack, d)
	}
	n.publishLocked()
}

// NavigateUp pops the top entry. It reports false and does nothing when
// there is nothing to go back to.
func (n *Navigator) NavigateUp() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) < 2 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	n.publishLocked()
	return true
}

// popIndexLocked finds where a pop up to d starts. For a graph route that is
// the lowest entry inside the graph.
func (n *Navigator) popIndexLocked(d Destination) int {
	if d == LegalScreens {
		for i, e := range n.stack {
			if e.Graph() == d {
				return i
			}
		}
		return -1
	}
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i] == d {
			return i
		}
	}
	return -1
}

func (n *Navigator) publishLocked() {
	n.current.Set(n.stack[len(n.stack)-1])
}
