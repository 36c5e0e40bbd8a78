package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/school-payroll/internal/domain/entity"
	domainwf "github.com/garyjia/school-payroll/internal/domain/workflow"
)

var allTriggers = []domainwf.Trigger{
	domainwf.TriggerPrepare,
	domainwf.TriggerSubmit,
	domainwf.TriggerApprove,
	domainwf.TriggerReject,
	domainwf.TriggerFinalize,
}

func TestSalaryRunLifecycle_TransitionGrid(t *testing.T) {
	allowed := map[domainwf.State]map[domainwf.Trigger]domainwf.State{
		domainwf.StateDraft:     {domainwf.TriggerPrepare: domainwf.StatePrepared},
		domainwf.StatePrepared:  {domainwf.TriggerSubmit: domainwf.StateSubmitted},
		domainwf.StateSubmitted: {domainwf.TriggerApprove: domainwf.StateApproved, domainwf.TriggerReject: domainwf.StateRejected},
		domainwf.StateApproved:  {domainwf.TriggerFinalize: domainwf.StateFinalized},
		domainwf.StateRejected:  {domainwf.TriggerPrepare: domainwf.StatePrepared},
		domainwf.StateFinalized: {},
	}

	for from, permitted := range allowed {
		for _, trigger := range allTriggers {
			machine, err := ForRun(&entity.SalaryRun{Status: from.String()})
			if err != nil {
				t.Fatalf("ForRun(%s) error = %v", from, err)
			}
			err = machine.Fire(context.Background(), trigger)

			want, ok := permitted[trigger]
			if ok {
				if err != nil {
					t.Errorf("%s --%s--> unexpected error: %v", from, trigger, err)
					continue
				}
				if machine.State() != want {
					t.Errorf("%s --%s--> %s, want %s", from, trigger, machine.State(), want)
				}
				continue
			}

			if !errors.Is(err, domainwf.ErrInvalidTransition) {
				t.Errorf("%s --%s--> error = %v, want ErrInvalidTransition", from, trigger, err)
			}
			if machine.State() != from {
				t.Errorf("%s --%s--> state mutated to %s", from, trigger, machine.State())
			}
		}
	}
}

func TestForRun_UnknownStatus(t *testing.T) {
	if _, err := ForRun(&entity.SalaryRun{Status: "PAID"}); !errors.Is(err, domainwf.ErrInvalidState) {
		t.Errorf("ForRun() error = %v, want ErrInvalidState", err)
	}
}

func TestForRun_PostedRunCannotFinalize(t *testing.T) {
	expenseID := int64(42)
	run := &entity.SalaryRun{Status: entity.RunStatusApproved, PostedExpenseID: &expenseID}

	machine, err := ForRun(run)
	if err != nil {
		t.Fatalf("ForRun() error = %v", err)
	}
	if err := machine.Fire(context.Background(), domainwf.TriggerFinalize); !errors.Is(err, domainwf.ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want ErrGuardFailed", err)
	}
	if machine.State() != domainwf.StateApproved {
		t.Errorf("State = %s, want APPROVED", machine.State())
	}
}

func TestAllowedActions(t *testing.T) {
	expenseID := int64(42)
	tests := []struct {
		name string
		run  *entity.SalaryRun
		want []string
	}{
		{"draft", &entity.SalaryRun{Status: entity.RunStatusDraft}, []string{"prepare"}},
		{"submitted", &entity.SalaryRun{Status: entity.RunStatusSubmitted}, []string{"approve", "reject"}},
		{"approved", &entity.SalaryRun{Status: entity.RunStatusApproved}, []string{"finalize"}},
		{"approved but posted", &entity.SalaryRun{Status: entity.RunStatusApproved, PostedExpenseID: &expenseID}, []string{}},
		{"finalized", &entity.SalaryRun{Status: entity.RunStatusFinalized}, []string{}},
		{"unknown", &entity.SalaryRun{Status: "PAID"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedActions(context.Background(), tt.run)
			if len(got) != len(tt.want) {
				t.Fatalf("AllowedActions() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("AllowedActions() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
