package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/presentation/marketdata"
)

type marketPage struct {
	pageBase
	vm  *marketdata.ViewModel
	cur marketdata.State
}

func (p *marketPage) title() string { return "Market Data" }
func (p *marketPage) help() string {
	return "left/right symbol | i interval | r refresh | f force refresh | e dismiss | esc back"
}

func (p *marketPage) key(msg tea.KeyMsg, _ router) {
	switch msg.String() {
	case "left", "h":
		p.selectSymbol(-1)
	case "right", "l":
		p.selectSymbol(1)
	case "i":
		p.vm.HandleEvent(marketdata.SelectInterval{Interval: nextInterval(p.cur.Interval)})
	case "r":
		p.vm.HandleEvent(marketdata.Refresh{})
	case "f":
		p.vm.HandleEvent(marketdata.ForceRefresh{})
	case "e":
		p.vm.HandleEvent(marketdata.DismissError{})
	case "esc":
		p.vm.HandleEvent(marketdata.NavigateBack{})
	}
}

func (p *marketPage) selectSymbol(delta int) {
	n := len(p.cur.Symbols)
	if n == 0 {
		return
	}
	idx := 0
	for i, s := range p.cur.Symbols {
		if s == p.cur.Symbol {
			idx = i
		}
	}
	idx = (idx + delta + n) % n
	p.vm.HandleEvent(marketdata.SelectSymbol{Symbol: p.cur.Symbols[idx]})
}

func nextInterval(cur model.TimeInterval) model.TimeInterval {
	all := model.Intervals()
	for i, it := range all {
		if it == cur {
			return all[(i+1)%len(all)]
		}
	}
	return model.OneHour
}

func (p *marketPage) state(s any, _ router) {
	if st, ok := s.(marketdata.State); ok {
		p.cur = st
	}
}

func (p *marketPage) effect(e any, r router) {
	switch e := e.(type) {
	case marketdata.MessageEffect:
		r.flash(e.Message)
	case marketdata.NavigateBackEffect:
		r.back()
	}
}

func (p *marketPage) view() string {
	var b strings.Builder
	symbols := make([]string, len(p.cur.Symbols))
	for i, s := range p.cur.Symbols {
		if s == p.cur.Symbol {
			symbols[i] = selectedStyle.Render("[" + s + "]")
		} else {
			symbols[i] = s
		}
	}
	fmt.Fprintf(&b, "%s  interval %s\n\n", strings.Join(symbols, " "), p.cur.Interval)

	if p.cur.Error != "" {
		b.WriteString(errorStyle.Render(p.cur.Error) + "\n\n")
	}
	switch {
	case p.cur.IsLoading:
		b.WriteString(mutedStyle.Render("Loading market data..."))
	case p.cur.Summary == nil:
		b.WriteString(mutedStyle.Render("No data yet. Press r to refresh."))
	default:
		s := p.cur.Summary
		fmt.Fprintf(&b, "Candles  %d (%s to %s)\n", s.Candles, s.From.Format(time.DateTime), s.To.Format(time.DateTime))
		fmt.Fprintf(&b, "Close    %s (%s%%)\n", s.LastClose.StringFixed(2), s.Change.String())
		fmt.Fprintf(&b, "High     %s\n", s.High.StringFixed(2))
		fmt.Fprintf(&b, "Low      %s\n", s.Low.StringFixed(2))
		fmt.Fprintf(&b, "Volume   %s", s.Volume.StringFixed(2))
	}
	if p.cur.LastUpdated != nil {
		b.WriteString("\n\n" + mutedStyle.Render("updated "+p.cur.LastUpdated.Format(time.RFC3339)))
	}
	return b.String()
}

func (p *marketPage) close() { p.vm.Close() }
