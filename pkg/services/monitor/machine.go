package monitor

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog"
)

// Run phases. FAILED is terminal and reachable from every non-terminal state.
const (
	stateStarted         = "STARTED"
	stateWindowsComputed = "WINDOWS_COMPUTED"
	stateCostsFetched    = "COSTS_FETCHED"
	stateUsageClassified = "USAGE_CLASSIFIED"
	stateTotalsComputed  = "TOTALS_COMPUTED"
	statePersisted       = "PERSISTED"
	stateDone            = "DONE"
	stateFailed          = "FAILED"
)

const (
	triggerWindowsComputed = "windows_computed"
	triggerCostsFetched    = "costs_fetched"
	triggerUsageClassified = "usage_classified"
	triggerTotalsComputed  = "totals_computed"
	triggerPersisted       = "persisted"
	triggerDone            = "done"
	triggerFailed          = "failed"
)

func newRunMachine(logger *zerolog.Logger) *stateless.StateMachine {
	machine := stateless.NewStateMachine(stateStarted)

	steps := []struct {
		from    string
		trigger string
		to      string
	}{
		{stateStarted, triggerWindowsComputed, stateWindowsComputed},
		{stateWindowsComputed, triggerCostsFetched, stateCostsFetched},
		{stateCostsFetched, triggerUsageClassified, stateUsageClassified},
		{stateUsageClassified, triggerTotalsComputed, stateTotalsComputed},
		{stateTotalsComputed, triggerPersisted, statePersisted},
		{statePersisted, triggerDone, stateDone},
	}
	for _, step := range steps {
		machine.Configure(step.from).
			Permit(step.trigger, step.to).
			Permit(triggerFailed, stateFailed)
	}

	machine.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.Debug().
			Str("from", fmt.Sprint(t.Source)).
			Str("to", fmt.Sprint(t.Destination)).
			Msg("run phase transition")
	})

	return machine
}

func advance(ctx context.Context, machine *stateless.StateMachine, trigger string) {
	if err := machine.FireCtx(ctx, trigger); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("trigger", trigger).Msg("run state transition rejected")
	}
}
