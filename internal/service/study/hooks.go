package study

import "context"

// BreakpointVerdict is the answer a breakpoint hook gives when the
// scheduler reaches a checkpoint.
type BreakpointVerdict string

// Possible verdicts.
const (
	// VerdictContinue lets the session advance immediately.
	VerdictContinue BreakpointVerdict = "continue"

	// VerdictPause blocks further answers until Resume is called.
	// External ad/upsell logic uses this to take over the screen.
	VerdictPause BreakpointVerdict = "pause"
)

// BreakpointHook is invoked every N answered cards. Implementations
// live outside the core (ad breaks, upsell prompts, rest reminders);
// the scheduler only honors the verdict.
type BreakpointHook interface {
	OnCheckpoint(ctx context.Context, answered int) BreakpointVerdict
}

// BreakpointHookFunc adapts a plain function to the BreakpointHook
// interface.
type BreakpointHookFunc func(ctx context.Context, answered int) BreakpointVerdict

// OnCheckpoint implements BreakpointHook.
func (f BreakpointHookFunc) OnCheckpoint(ctx context.Context, answered int) BreakpointVerdict {
	return f(ctx, answered)
}
