package workflow

import (
	"context"
	"strings"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	domainwf "github.com/garyjia/school-payroll/internal/domain/workflow"
)

// ForRun builds the salary run lifecycle positioned at the run's persisted
// status. Guards read run, so the machine must not outlive it.
func ForRun(run *entity.SalaryRun) (*domainwf.Machine, error) {
	state := domainwf.State(run.Status)
	if !state.IsValid() {
		return nil, domainwf.ErrInvalidState
	}

	b := domainwf.NewBuilder()

	b.From(domainwf.StateDraft).
		Permit(domainwf.TriggerPrepare, domainwf.StatePrepared)

	b.From(domainwf.StatePrepared).
		Permit(domainwf.TriggerSubmit, domainwf.StateSubmitted)

	b.From(domainwf.StateSubmitted).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// a run is posted to the ledger exactly once
	b.From(domainwf.StateApproved).
		PermitIf(domainwf.TriggerFinalize, domainwf.StateFinalized, notPosted(run))

	b.From(domainwf.StateRejected).
		Permit(domainwf.TriggerPrepare, domainwf.StatePrepared)

	return b.Build(state), nil
}

// AllowedActions lists the lower-case lifecycle actions the run accepts next
func AllowedActions(ctx context.Context, run *entity.SalaryRun) []string {
	m, err := ForRun(run)
	if err != nil {
		return []string{}
	}
	triggers := m.Allowed(ctx)
	actions := make([]string, 0, len(triggers))
	for _, t := range triggers {
		actions = append(actions, strings.ToLower(t.String()))
	}
	return actions
}

func notPosted(run *entity.SalaryRun) domainwf.Guard {
	return func(context.Context) bool {
		return !run.IsPosted()
	}
}
