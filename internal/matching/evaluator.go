// Package matching decides whether a job posting is eligible for a worker.
//
// Evaluation is pure: no I/O, no shared state, inputs are never mutated. The
// evaluation time is passed in by the caller so results are reproducible.
package matching

import (
	"math"
	"strings"
	"time"
)

// MatchResult is the eligibility verdict for one job and worker pair.
type MatchResult struct {
	IsMatch     bool
	FailedRule  RuleID
	Explanation string
	// DistanceKm is set when the distance rule ran with both locations known.
	DistanceKm  float64
	HasDistance bool
}

// Evaluate checks the job against the worker using DefaultRules.
func Evaluate(job *JobPosting, worker *WorkerProfile, now time.Time) MatchResult {
	return EvaluateWith(DefaultRules, job, worker, now)
}

// EvaluateWith checks the rules in order and stops at the first failure.
func EvaluateWith(rules []Rule, job *JobPosting, worker *WorkerProfile, now time.Time) MatchResult {
	if out, ok := validate(job, worker); !ok {
		return out.result()
	}

	in := &input{job: job, worker: worker, now: now}
	res := MatchResult{IsMatch: true}
	for _, rule := range rules {
		out := rule.Check(in)
		if out.HasDistance {
			res.DistanceKm, res.HasDistance = out.DistanceKm, true
		}
		if !out.Passed {
			failed := out.result()
			failed.DistanceKm, failed.HasDistance = res.DistanceKm, res.HasDistance
			return failed
		}
	}
	return res
}

// Trace runs every default rule without stopping and returns each outcome.
// When the input is malformed the trace holds a single invalid_input outcome.
func Trace(job *JobPosting, worker *WorkerProfile, now time.Time) []Outcome {
	if out, ok := validate(job, worker); !ok {
		return []Outcome{out}
	}

	in := &input{job: job, worker: worker, now: now}
	outcomes := make([]Outcome, 0, len(DefaultRules))
	for _, rule := range DefaultRules {
		outcomes = append(outcomes, rule.Check(in))
	}
	return outcomes
}

// FilterEligible returns the jobs that match the worker, keeping input order.
func FilterEligible(jobs []JobPosting, worker *WorkerProfile, now time.Time) []JobPosting {
	eligible := make([]JobPosting, 0, len(jobs))
	for i := range jobs {
		if Evaluate(&jobs[i], worker, now).IsMatch {
			eligible = append(eligible, jobs[i])
		}
	}
	return eligible
}

func (o Outcome) result() MatchResult {
	return MatchResult{
		IsMatch:     o.Passed,
		FailedRule:  o.FailedRule,
		Explanation: o.Explanation,
	}
}

func validate(job *JobPosting, worker *WorkerProfile) (Outcome, bool) {
	const name = "input"
	switch {
	case job == nil:
		return fail(name, RuleInvalidInput, "job is missing"), false
	case worker == nil:
		return fail(name, RuleInvalidInput, "worker profile is missing"), false
	case strings.TrimSpace(job.Category) == "":
		return fail(name, RuleInvalidInput, "job %s has no category", job.ID), false
	}
	if _, ok := validStatuses[job.Status]; !ok {
		return fail(name, RuleInvalidInput, "job %s has unknown status %q", job.ID, job.Status), false
	}
	// Absent locations are left to the distance rule as unknown_location.
	if job.Location != nil && !validLocation(job.Location) {
		return fail(name, RuleInvalidInput, "job %s coordinates are out of range", job.ID), false
	}
	if worker.HomeLocation != nil && !validLocation(worker.HomeLocation) {
		return fail(name, RuleInvalidInput, "worker %s home coordinates are out of range", worker.ID), false
	}
	if math.IsNaN(worker.RadiusKm) || worker.RadiusKm <= 0 {
		return fail(name, RuleInvalidInput, "worker radius must be positive, got %v", worker.RadiusKm), false
	}
	return Outcome{Rule: name, Passed: true}, true
}
