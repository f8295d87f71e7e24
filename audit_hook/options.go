package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger for the extension.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithEnabledActions audits only the given actions. Without it every
// action is audited.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) { e.enabled = setOf(actions) }
}

// WithDisabledActions skips the given actions.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) { e.disable(actions...) }
}

// WithCategories audits only actions in the given categories, e.g.
// CategoryPayment and CategoryMilestone.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		want := setOf(categories)
		var keep []string
		for _, spec := range actions {
			if want[spec.category] {
				keep = append(keep, spec.action)
			}
		}
		if want[CategoryMilestone] {
			keep = append(keep, ActionMilestoneReached, ActionMilestoneForecast)
		}
		e.enabled = setOf(keep)
	}
}

// WithoutForecasts skips speculative milestones; only confirmed ones are
// audited.
func WithoutForecasts() Option {
	return func(e *Extension) { e.disable(ActionMilestoneForecast) }
}

func (e *Extension) disable(names ...string) {
	if e.enabled == nil {
		e.enabled = setOf(allActions())
	}
	for _, name := range names {
		delete(e.enabled, name)
	}
}

// allActions returns all known audit actions.
func allActions() []string {
	out := make([]string, 0, len(actions)+2)
	for _, spec := range actions {
		out = append(out, spec.action)
	}
	return append(out, ActionMilestoneReached, ActionMilestoneForecast)
}

func setOf(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
