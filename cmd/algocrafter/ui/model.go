// Package ui is the terminal surface. Every screen is a view model from
// internal/presentation observed through its own lifecycle; the bubbletea
// program only renders state, forwards key presses as events and acts on
// effects.
package ui

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"algocrafter/internal/app"
	"algocrafter/internal/flow"
	"algocrafter/internal/metrics"
	"algocrafter/internal/presentation/navigation"
	"algocrafter/logger"
)

const inboxSize = 64

type stateMsg struct {
	dest  navigation.Destination
	state any
}

type effectMsg struct {
	dest   navigation.Destination
	effect any
}

// router is what a page may ask of the host.
type router interface {
	navigate(d navigation.Destination)
	navigateWithPopUp(d, popUpTo navigation.Destination)
	navigateBackToStart(d navigation.Destination)
	back()
	flash(message string)
}

type page interface {
	title() string
	help() string
	lifecycle() *flow.Lifecycle
	key(msg tea.KeyMsg, r router)
	state(s any, r router)
	effect(e any, r router)
	view() string
	close()
}

type pageBase struct {
	lc *flow.Lifecycle
}

func newPageBase() pageBase { return pageBase{lc: flow.NewLifecycle()} }

func (p pageBase) lifecycle() *flow.Lifecycle { return p.lc }

func (pageBase) state(any, router)  {}
func (pageBase) effect(any, router) {}
func (pageBase) close()             {}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *logger.Entry
	inbox  chan tea.Msg
	wg     sync.WaitGroup

	nav     *navigation.Navigator
	pages   map[navigation.Destination]page
	current navigation.Destination

	flashText string
	width     int
	quitting  bool
	closeOnce sync.Once
}

// New builds every screen up front and resumes start.
func New(ctx context.Context, c *app.Container, start navigation.Destination) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:    ctx,
		cancel: cancel,
		log:    c.Log.WithComponent("ui"),
		inbox:  make(chan tea.Msg, inboxSize),
		nav:    navigation.NewNavigator(start),
		pages:  make(map[navigation.Destination]page),
	}

	var gauges []metrics.BufferGauge

	menuVM := c.NewMenu(ctx)
	mp := &menuPage{pageBase: newPageBase(), vm: menuVM}
	observe(m, navigation.Menu, mp.lc, menuVM.State(), menuVM.Effects())
	m.pages[navigation.Menu] = mp
	gauges = append(gauges, menuVM.BufferGauge())

	legalVM := c.NewLegal(ctx)
	lp := &legalPage{pageBase: newPageBase(), vm: legalVM}
	observe(m, navigation.Legal, lp.lc, legalVM.State(), legalVM.Effects())
	m.pages[navigation.Legal] = lp
	gauges = append(gauges, legalVM.BufferGauge())

	for _, d := range []navigation.Destination{navigation.TermsOfService, navigation.PrivacyPolicy, navigation.AIDisclaimer} {
		m.pages[d] = newDocumentPage(d)
	}

	strategiesVM := c.NewStrategies(ctx)
	sp := &strategiesPage{pageBase: newPageBase(), vm: strategiesVM}
	observe(m, navigation.Strategies, sp.lc, strategiesVM.State(), strategiesVM.Effects())
	m.pages[navigation.Strategies] = sp
	gauges = append(gauges, strategiesVM.BufferGauge())

	marketVM := c.NewMarketData(ctx)
	mdp := &marketPage{pageBase: newPageBase(), vm: marketVM}
	observe(m, navigation.MarketData, mdp.lc, marketVM.State(), marketVM.Effects())
	m.pages[navigation.MarketData] = mdp
	gauges = append(gauges, marketVM.BufferGauge())

	homeVM := c.NewHome(ctx)
	hp := &homePage{pageBase: newPageBase(), vm: homeVM}
	observe(m, navigation.Home, hp.lc, homeVM.State(), homeVM.Effects())
	m.pages[navigation.Home] = hp

	cleanVM := c.NewCleanSetup(ctx)
	cp := &cleanSetupPage{pageBase: newPageBase(), vm: cleanVM}
	observe(m, navigation.CleanSetupNoEffects, cp.lc, cleanVM.State(), cleanVM.Effects())
	m.pages[navigation.CleanSetupNoEffects] = cp

	effectsVM := c.NewCleanSetupEffects(ctx)
	ep := &cleanSetupEffectsPage{pageBase: newPageBase(), vm: effectsVM}
	observe(m, navigation.CleanSetupWithEffects, ep.lc, effectsVM.State(), effectsVM.Effects())
	m.pages[navigation.CleanSetupWithEffects] = ep
	gauges = append(gauges, effectsVM.BufferGauge())

	metrics.StartEffectBufferMetrics(ctx, gauges, time.Second)

	m.current = m.nav.Top()
	m.moveTo(m.current, flow.Resumed)
	return m
}

// observe forwards state and effects of one screen into the inbox while its
// lifecycle is at least Started.
func observe[S, E any](m *Model, dest navigation.Destination, lc *flow.Lifecycle, state flow.Observable[S], effects *flow.Effects[E]) {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		_ = flow.ObserveState(m.ctx, lc, state, func(s S) {
			m.forward(stateMsg{dest: dest, state: s})
		})
	}()
	go func() {
		defer m.wg.Done()
		_ = flow.ObserveEffects(m.ctx, lc, effects, func(e E) {
			m.forward(effectMsg{dest: dest, effect: e})
		})
	}()
}

func (m *Model) forward(msg tea.Msg) {
	select {
	case m.inbox <- msg:
	case <-m.ctx.Done():
	}
}

// listen delivers the next forwarded message. Every delivered message
// schedules the next listen.
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.inbox:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Init() tea.Cmd { return m.listen() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		m.flashText = ""
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
		default:
			m.pages[m.current].key(msg, m)
		}
	case stateMsg:
		if p, ok := m.pages[msg.dest]; ok {
			p.state(msg.state, m)
		}
		cmd = m.listen()
	case effectMsg:
		if p, ok := m.pages[msg.dest]; ok {
			p.effect(msg.effect, m)
		}
		cmd = m.listen()
	}

	m.sync()
	if m.quitting {
		m.shutdown()
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	p := m.pages[m.current]
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.title()))
	b.WriteString("\n")
	b.WriteString(p.view())
	b.WriteString("\n\n")
	if m.flashText != "" {
		b.WriteString(flashStyle.Render(m.flashText))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(p.help() + " | q quit"))
	return frameStyle.Render(b.String())
}

// Current is the destination on top of the back stack.
func (m *Model) Current() navigation.Destination { return m.current }

func (m *Model) navigate(d navigation.Destination) { m.nav.Navigate(d) }

func (m *Model) navigateWithPopUp(d, popUpTo navigation.Destination) {
	m.nav.NavigateWithPopUp(d, popUpTo)
}

func (m *Model) navigateBackToStart(d navigation.Destination) { m.nav.NavigateBackToStart(d) }

// back leaves the program when there is nothing to go back to.
func (m *Model) back() {
	if !m.nav.NavigateUp() {
		m.quitting = true
	}
}

func (m *Model) flash(message string) { m.flashText = message }

// sync moves the lifecycles after a navigation: the page left behind drops
// to Created and the new top is resumed.
func (m *Model) sync() {
	top := m.nav.Top()
	if top == m.current {
		return
	}
	m.log.WithFields(logger.Fields{"from": string(m.current), "to": string(top)}).Debug("navigate")
	m.moveTo(m.current, flow.Created)
	m.moveTo(top, flow.Resumed)
	m.current = top
}

func (m *Model) moveTo(d navigation.Destination, st flow.LifecycleState) {
	p, ok := m.pages[d]
	if !ok {
		return
	}
	if err := p.lifecycle().MoveTo(st); err != nil {
		m.log.WithError(err).WithFields(logger.Fields{"destination": string(d)}).Debug("lifecycle move refused")
	}
}

func (m *Model) shutdown() {
	for d := range m.pages {
		m.moveTo(d, flow.Destroyed)
	}
	m.cancel()
}

// Close destroys every screen, waits for the observers and closes the view
// models.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.shutdown()
		m.wg.Wait()
		for _, p := range m.pages {
			p.close()
		}
	})
}

// Run blocks until the user quits or ctx ends.
func Run(ctx context.Context, c *app.Container, start navigation.Destination) error {
	m := New(ctx, c, start)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
