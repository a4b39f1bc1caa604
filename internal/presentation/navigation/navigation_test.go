package navigation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNavigateAndUp(t *testing.T) {
	n := NewNavigator(LegalScreens)
	if n.Top() != Legal {
		t.Fatalf("expected graph route to resolve to %s, got %s", Legal, n.Top())
	}
	if n.NavigateUp() {
		t.Fatal("navigate up from the only entry must be refused")
	}

	n.Navigate(TermsOfService)
	if !n.NavigateUp() || n.Top() != Legal {
		t.Fatalf("expected to be back on %s, got %s", Legal, n.Top())
	}
}

func TestNavigateWithPopUpGraph(t *testing.T) {
	n := NewNavigator(Legal)
	n.Navigate(PrivacyPolicy)
	n.NavigateWithPopUp(Menu, LegalScreens)

	if diff := cmp.Diff([]Destination{Menu}, n.BackStack()); diff != "" {
		t.Fatalf("back stack mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigateWithPopUpMissingTarget(t *testing.T) {
	n := NewNavigator(Menu)
	n.NavigateWithPopUp(Strategies, Home)

	if diff := cmp.Diff([]Destination{Menu, Strategies}, n.BackStack()); diff != "" {
		t.Fatalf("back stack mismatch (-want +got):\n%s", diff)
	}
}

func TestClearAndBackToStart(t *testing.T) {
	n := NewNavigator(Home)
	n.Navigate(CleanSetupNoEffects)
	n.Navigate(CleanSetupWithEffects)

	n.NavigateBackToStart(CleanSetupNoEffects)
	if diff := cmp.Diff([]Destination{Home, CleanSetupNoEffects}, n.BackStack()); diff != "" {
		t.Fatalf("back stack mismatch (-want +got):\n%s", diff)
	}
	n.NavigateBackToStart(Home)
	if diff := cmp.Diff([]Destination{Home}, n.BackStack()); diff != "" {
		t.Fatalf("back stack mismatch (-want +got):\n%s", diff)
	}

	n.NavigateWithClearBackstack(Menu)
	if diff := cmp.Diff([]Destination{Menu}, n.BackStack()); diff != "" {
		t.Fatalf("back stack mismatch (-want +got):\n%s", diff)
	}
	if n.Current().Value() != Menu {
		t.Fatalf("current not published, got %s", n.Current().Value())
	}
}

func TestGraphMembership(t *testing.T) {
	for _, d := range []Destination{Legal, TermsOfService, PrivacyPolicy, AIDisclaimer} {
		if d.Graph() != LegalScreens {
			t.Errorf("%s should belong to %s", d, LegalScreens)
		}
	}
	if Menu.Graph() != Menu {
		t.Errorf("menu is a top-level destination")
	}
	if len(Destinations()) != 10 {
		t.Errorf("expected 10 destinations, got %d", len(Destinations()))
	}
}
