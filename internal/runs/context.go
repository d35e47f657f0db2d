package runs

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	triggerKey contextKey = "trigger"
)

// Trigger identifies what started a run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerWatch     Trigger = "watch"
	TriggerScheduled Trigger = "scheduled"
	TriggerUndo      Trigger = "undo"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTrigger annotates context with the run trigger.
func WithTrigger(ctx context.Context, trigger Trigger) context.Context {
	if trigger == "" {
		return ctx
	}
	return context.WithValue(ctx, triggerKey, trigger)
}

// TriggerFromContext extracts the run trigger if present.
func TriggerFromContext(ctx context.Context) (Trigger, bool) {
	if v, ok := ctx.Value(triggerKey).(Trigger); ok && v != "" {
		return v, true
	}
	return "", false
}
