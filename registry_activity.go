package attrs

import (
	"context"

	"github.com/goliatone/go-attrs/pkg/activity"
)

// WithActivityHooks attaches activity hooks to the registry configuration.
// Hooks are cloned and nil entries dropped to preserve immutability.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *registryConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a cloned slice of activity hooks configured on the
// registry. The returned slice can be safely mutated by the caller.
func (r *Registry) ActivityHooks() activity.Hooks {
	if r == nil {
		return nil
	}
	return cloneActivityHooks(r.cfg.activityHooks)
}

// EmitDiff builds an attributes-updated event from diff and forwards it to
// the configured hooks. Empty diffs emit nothing.
func (r *Registry) EmitDiff(ctx context.Context, input activity.AttributeEventInput, diff Diff) error {
	if r == nil || !r.cfg.activityHooks.Enabled() || diff.IsEmpty() {
		return nil
	}
	input.Changed = diff.Changed()
	input.Deleted = diff.Deleted()
	input.NewValues = diff.NewValues
	input.OldValues = diff.OldValues
	return r.cfg.activityHooks.Notify(ctx, activity.BuildAttributesUpdatedEvent(input))
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
