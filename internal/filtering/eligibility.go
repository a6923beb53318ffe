package filtering

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/logger"
	"github.com/spigell/shiftmatch/internal/matching"
)

type eligibilityFilter struct {
	toggle
	name    string
	rules   []matching.Rule
	worker  *matching.WorkerProfile
	now     func() time.Time
	logger  *zap.Logger
	dropped map[matching.RuleID]int
}

type EligibilityConfig struct {
	Worker *matching.WorkerProfile
	// Rules defaults to matching.DefaultRules.
	Rules []matching.Rule
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewEligibility creates the step that drops every job the worker cannot take.
func NewEligibility(cfg *EligibilityConfig, l *zap.Logger) Filter {
	f := &eligibilityFilter{name: "eligibility", logger: logger.OrNop(l)}
	if cfg == nil {
		return f
	}
	f.worker = cfg.Worker
	f.rules = cfg.Rules
	f.now = cfg.Now
	return f
}

// NewRadius creates an eligibility step that only checks availability and radius.
func NewRadius(worker *matching.WorkerProfile, now func() time.Time, l *zap.Logger) Filter {
	f := NewEligibility(&EligibilityConfig{Worker: worker, Rules: matching.RadiusRules, Now: now}, l).(*eligibilityFilter)
	f.name = "radius"
	return f
}

func (f *eligibilityFilter) Name() string { return f.name }

func (f *eligibilityFilter) Validate() error {
	if f.worker == nil {
		return fmt.Errorf("worker profile is required")
	}
	if len(f.rules) == 0 {
		f.rules = matching.DefaultRules
	}
	if f.now == nil {
		f.now = time.Now
	}
	return nil
}

func (f *eligibilityFilter) Apply(_ context.Context, fd *feed.Feed) (*feed.Feed, Step, error) {
	initial := fd.Len()
	rejected := fd.Retain(f.rules, f.worker, f.now())
	fd.Sort()

	log := logger.ForWorker(f.logger, f.worker)
	f.dropped = make(map[matching.RuleID]int)
	for _, r := range rejected {
		f.dropped[r.Result.FailedRule]++

		fields := append(logger.JobFields(&r.Job), logger.ResultFields(r.Result)...)
		if r.Result.FailedRule.Diagnostic() {
			log.Warn("job can not be evaluated", fields...)
			continue
		}
		log.Debug("job does not match", fields...)
	}

	if len(rejected) > 0 {
		fields := make([]zap.Field, 0, len(f.dropped))
		for _, rule := range f.droppedRules() {
			fields = append(fields, zap.Int(string(rule), f.dropped[rule]))
		}
		log.Info("excluding jobs the worker can not take", fields...)
	}

	return fd, Step{Initial: initial, Dropped: len(rejected), Left: fd.Len()}, nil
}

func (f *eligibilityFilter) droppedRules() []matching.RuleID {
	rules := make([]matching.RuleID, 0, len(f.dropped))
	for rule := range f.dropped {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i] < rules[j] })
	return rules
}

// Dropped returns how many jobs each rule rejected in the last run.
func (f *eligibilityFilter) Dropped() map[matching.RuleID]int {
	return f.dropped
}

func (f *eligibilityFilter) Status() Status {
	details := map[string]string{}
	if f.worker != nil {
		details["worker"] = f.worker.ID
		details["radius_km"] = fmt.Sprintf("%.1f", f.worker.RadiusKm)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
