package home

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
	"algocrafter/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNavTargetLivesInState(t *testing.T) {
	vm := New(context.Background(), screen.Options{StopTimeout: time.Millisecond, Log: logger.Discard()})
	defer vm.Close()

	tests := []struct {
		event Event
		want  NavTarget
	}{
		{NavigateToCleanSetupNoEffects{}, NavCleanSetupNoEffects},
		{NavigationHandled{}, NavNone},
		{NavigateToCleanSetupWithEffects{}, NavCleanSetupWithEffects},
		{NavigateBack{}, NavBack},
		{NavigationHandled{}, NavNone},
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, tt := range tests {
		vm.HandleEvent(tt.event)
		got, err := flow.Await(ctx, vm.State(), func(s State) bool { return s.NavTarget == tt.want })
		if err != nil {
			t.Fatalf("after %T: %v", tt.event, err)
		}
		if got.IsLoading || got.SnackbarMessage != "" {
			t.Fatalf("content state changed unexpectedly: %+v", got)
		}
	}
}
