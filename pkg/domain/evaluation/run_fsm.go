package evaluation

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Run states. A run walks the pipeline stages in order and ends in either
// StateCompleted or StateFailed.
const (
	StatePending    = "pending"
	StateLoading    = "loading"
	StatePrompting  = "prompting"
	StateScoring    = "scoring"
	StateValidating = "validating"
	StateRendering  = "rendering"
	StatePersisting = "persisting"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

const (
	eventNext  = "next"
	eventFail  = "fail"
	eventReset = "reset"
)

var stageOfState = map[string]Stage{
	StateLoading:    StageLoad,
	StatePrompting:  StagePrompt,
	StateScoring:    StageScore,
	StateValidating: StageValidate,
	StateRendering:  StageRender,
	StatePersisting: StagePersist,
}

// RunContext identifies the run driven by the machine.
type RunContext struct {
	RunID string
	Path  string
}

// RunStateMachine tracks which pipeline stage a single report is in so a
// failure can be attributed to it.
type RunStateMachine struct {
	interpreter *statekit.Interpreter[RunContext]
	failedIn    Stage
}

// NewRunStateMachine builds a machine in StatePending.
func NewRunStateMachine(runID, path string) (*RunStateMachine, error) {
	builder := statekit.NewMachine[RunContext]("analysis-run").
		WithInitial(statekit.StateID(StatePending)).
		WithContext(RunContext{RunID: runID, Path: path})

	builder.State(StatePending).
		On(eventNext).Target(StateLoading).
		Done()

	builder.State(StateLoading).
		On(eventNext).Target(StatePrompting).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StatePrompting).
		On(eventNext).Target(StateScoring).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StateScoring).
		On(eventNext).Target(StateValidating).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StateValidating).
		On(eventNext).Target(StateRendering).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StateRendering).
		On(eventNext).Target(StatePersisting).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StatePersisting).
		On(eventNext).Target(StateCompleted).
		On(eventFail).Target(StateFailed).
		Done()

	builder.State(StateCompleted).
		On(eventReset).Target(StatePending).
		Done()

	builder.State(StateFailed).
		On(eventReset).Target(StatePending).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &RunStateMachine{interpreter: interpreter}, nil
}

// Current returns the current state.
func (sm *RunStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// Stage returns the pipeline stage of the current state, or the stage the run
// failed in once it is in StateFailed.
func (sm *RunStateMachine) Stage() Stage {
	if sm.Current() == StateFailed {
		return sm.failedIn
	}
	return stageOfState[sm.Current()]
}

// Advance moves the run to the next stage.
func (sm *RunStateMachine) Advance() error {
	return sm.send(eventNext)
}

// Fail moves the run to StateFailed, remembering the stage it failed in.
func (sm *RunStateMachine) Fail() error {
	stage := sm.Stage()
	if err := sm.send(eventFail); err != nil {
		return err
	}
	sm.failedIn = stage
	return nil
}

// Reset returns a finished run to StatePending so the same report can be
// analyzed again.
func (sm *RunStateMachine) Reset() error {
	if err := sm.send(eventReset); err != nil {
		return err
	}
	sm.failedIn = ""
	return nil
}

// IsFinal reports whether the run has completed or failed.
func (sm *RunStateMachine) IsFinal() bool {
	c := sm.Current()
	return c == StateCompleted || c == StateFailed
}

func (sm *RunStateMachine) send(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	return fmt.Errorf("event %q is not allowed in run state %q", event, before)
}
