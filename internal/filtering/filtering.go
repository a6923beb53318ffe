// Package filtering runs a job feed through an ordered list of steps.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/logger"
)

// Filter represents a single filtering step applied to a feed.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, f *feed.Feed) (*feed.Feed, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by all filters.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, l *zap.Logger) *Filtering {
	return &Filtering{steps: steps, logger: logger.OrNop(l)}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func (fl *Filtering) DisableByName(name, reason string) {
	for _, step := range fl.steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// RunFilters validates every enabled step, then applies them in order.
func (fl *Filtering) RunFilters(ctx context.Context, f *feed.Feed) (*feed.Feed, error) {
	for _, step := range fl.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range fl.steps {
		if !step.IsEnabled() {
			fl.logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		fl.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		f = next
	}

	return f, nil
}

// Describe returns status entries for the configured filters.
func (fl *Filtering) Describe() []Status {
	statuses := make([]Status, 0, len(fl.steps))
	for _, step := range fl.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
