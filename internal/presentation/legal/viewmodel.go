// Package legal is the onboarding screen where the terms, the privacy policy
// and the AI disclaimer are accepted.
package legal

import (
	"context"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
)

type State struct {
	TosAccepted          bool
	PrivacyAccepted      bool
	AIDisclaimerAccepted bool
	AllAccepted          bool
}

func (s State) recompute() State {
	s.AllAccepted = s.TosAccepted && s.PrivacyAccepted && s.AIDisclaimerAccepted
	return s
}

type Event interface{ isLegalEvent() }

type (
	SetTosAccepted          struct{ Accepted bool }
	SetPrivacyAccepted      struct{ Accepted bool }
	SetAIDisclaimerAccepted struct{ Accepted bool }
	SetAllAccepted          struct{}

	NavigateToTermsOfService struct{}
	NavigateToPrivacyPolicy  struct{}
	NavigateToAIDisclaimer   struct{}
	NavigateBack             struct{}
	NavigateNext             struct{}
)

func (SetTosAccepted) isLegalEvent()           {}
func (SetPrivacyAccepted) isLegalEvent()       {}
func (SetAIDisclaimerAccepted) isLegalEvent()  {}
func (SetAllAccepted) isLegalEvent()           {}
func (NavigateToTermsOfService) isLegalEvent() {}
func (NavigateToPrivacyPolicy) isLegalEvent()  {}
func (NavigateToAIDisclaimer) isLegalEvent()   {}
func (NavigateBack) isLegalEvent()             {}
func (NavigateNext) isLegalEvent()             {}

type Effect interface{ isLegalEffect() }

type (
	MessageEffect            struct{ Message string }
	OpenTermsOfServiceEffect struct{}
	OpenPrivacyPolicyEffect  struct{}
	OpenAIDisclaimerEffect   struct{}
	NavigateBackEffect       struct{}
	NavigateNextEffect       struct{}
)

func (MessageEffect) isLegalEffect()            {}
func (OpenTermsOfServiceEffect) isLegalEffect() {}
func (OpenPrivacyPolicyEffect) isLegalEffect()  {}
func (OpenAIDisclaimerEffect) isLegalEffect()   {}
func (NavigateBackEffect) isLegalEffect()       {}
func (NavigateNextEffect) isLegalEffect()       {}

type ViewModel struct {
	*screen.Base[State, Effect]
	state *flow.SharedState[State]
}

func New(ctx context.Context, opts screen.Options) *ViewModel {
	vm := &ViewModel{Base: screen.NewBase[State, Effect](ctx, "legal", State{}, opts)}
	vm.state = vm.ShareLocal()
	return vm
}

func (vm *ViewModel) State() flow.Observable[State] { return vm.state }

func (vm *ViewModel) HandleEvent(event Event) {
	switch e := event.(type) {
	case SetTosAccepted:
		vm.update(func(s *State) { s.TosAccepted = e.Accepted })
	case SetPrivacyAccepted:
		vm.update(func(s *State) { s.PrivacyAccepted = e.Accepted })
	case SetAIDisclaimerAccepted:
		vm.update(func(s *State) { s.AIDisclaimerAccepted = e.Accepted })
	// SetAllAccepted confirms the screen and moves on.
	case SetAllAccepted, NavigateNext:
		vm.Emit(NavigateNextEffect{})
	case NavigateToTermsOfService:
		vm.Emit(OpenTermsOfServiceEffect{})
	case NavigateToPrivacyPolicy:
		vm.Emit(OpenPrivacyPolicyEffect{})
	case NavigateToAIDisclaimer:
		vm.Emit(OpenAIDisclaimerEffect{})
	case NavigateBack:
		vm.Emit(NavigateBackEffect{})
	}
}

func (vm *ViewModel) update(fn func(*State)) {
	vm.Local().Update(func(s State) State {
		fn(&s)
		return s.recompute()
	})
}
