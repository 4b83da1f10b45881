package evaluation_test

import (
	"testing"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

func TestRunStateMachine_HappyPath(t *testing.T) {
	sm, err := evaluation.NewRunStateMachine("run-1", "report.txt")
	if err != nil {
		t.Fatalf("NewRunStateMachine: %v", err)
	}
	if sm.Current() != evaluation.StatePending {
		t.Fatalf("initial state = %s", sm.Current())
	}

	want := []evaluation.Stage{
		evaluation.StageLoad,
		evaluation.StagePrompt,
		evaluation.StageScore,
		evaluation.StageValidate,
		evaluation.StageRender,
		evaluation.StagePersist,
	}
	for _, stage := range want {
		if err := sm.Advance(); err != nil {
			t.Fatalf("Advance into %s: %v", stage, err)
		}
		if sm.Stage() != stage {
			t.Fatalf("stage = %s, want %s", sm.Stage(), stage)
		}
	}
	if err := sm.Advance(); err != nil {
		t.Fatalf("Advance to completed: %v", err)
	}
	if sm.Current() != evaluation.StateCompleted || !sm.IsFinal() {
		t.Fatalf("expected completed, got %s", sm.Current())
	}
	if err := sm.Advance(); err == nil {
		t.Fatal("expected error advancing a completed run")
	}
}

func TestRunStateMachine_FailRemembersStage(t *testing.T) {
	sm, err := evaluation.NewRunStateMachine("run-2", "report.pdf")
	if err != nil {
		t.Fatalf("NewRunStateMachine: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sm.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	if sm.Stage() != evaluation.StageScore {
		t.Fatalf("stage = %s, want score", sm.Stage())
	}
	if err := sm.Fail(); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if sm.Current() != evaluation.StateFailed || sm.Stage() != evaluation.StageScore {
		t.Fatalf("state=%s stage=%s", sm.Current(), sm.Stage())
	}
	if err := sm.Fail(); err == nil {
		t.Fatal("expected error failing twice")
	}
	if err := sm.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if sm.Current() != evaluation.StatePending || sm.Stage() != "" {
		t.Fatalf("after reset state=%s stage=%s", sm.Current(), sm.Stage())
	}
}

func TestRunStateMachine_PendingCannotFail(t *testing.T) {
	sm, err := evaluation.NewRunStateMachine("run-3", "x.txt")
	if err != nil {
		t.Fatalf("NewRunStateMachine: %v", err)
	}
	if err := sm.Fail(); err == nil {
		t.Fatal("expected error failing a run that never started")
	}
}
