package matching

import (
	"fmt"
	"strings"
	"time"
)

// RuleID identifies why a job did not match a worker.
type RuleID string

const (
	RuleNone               RuleID = ""
	RuleNotOpen            RuleID = "not_open"
	RuleExpired            RuleID = "expired"
	RuleCategoryMismatch   RuleID = "category_mismatch"
	RuleMissingRequiredTag RuleID = "missing_required_tag"
	RuleNoOptionalTagMatch RuleID = "no_optional_tag_match"
	RuleOutOfRadius        RuleID = "out_of_radius"
	RuleUnknownLocation    RuleID = "unknown_location"
	RuleInvalidInput       RuleID = "invalid_input"
)

// Diagnostic reports whether the rule denotes malformed input rather than a routine filter outcome.
func (r RuleID) Diagnostic() bool {
	return r == RuleInvalidInput || r == RuleUnknownLocation
}

// Outcome is the verdict of a single rule.
type Outcome struct {
	Rule        string
	Passed      bool
	FailedRule  RuleID
	Explanation string
	DistanceKm  float64
	HasDistance bool
}

// Rule is a named check over a job and worker pair.
type Rule struct {
	Name  string
	Check func(in *input) Outcome
}

type input struct {
	job    *JobPosting
	worker *WorkerProfile
	now    time.Time
}

var (
	Availability = Rule{Name: "availability", Check: checkAvailability}
	Temporal     = Rule{Name: "temporal", Check: checkTemporal}
	Category     = Rule{Name: "category", Check: checkCategory}
	RequiredAll  = Rule{Name: "required_all_tags", Check: checkRequiredAll}
	RequiredAny  = Rule{Name: "required_any_tags", Check: checkRequiredAny}
	Distance     = Rule{Name: "distance", Check: checkDistance}
)

// DefaultRules is the full eligibility order. Cheap checks come first.
var DefaultRules = []Rule{Availability, Temporal, Category, RequiredAll, RequiredAny, Distance}

// RadiusRules ignores qualifications and only keeps live jobs within the worker radius.
var RadiusRules = []Rule{Availability, Temporal, Distance}

func pass(name string) Outcome {
	return Outcome{Rule: name, Passed: true}
}

func fail(name string, id RuleID, format string, args ...any) Outcome {
	return Outcome{Rule: name, FailedRule: id, Explanation: fmt.Sprintf(format, args...)}
}

func checkAvailability(in *input) Outcome {
	const name = "availability"
	if in.job.Status != StatusOpen {
		return fail(name, RuleNotOpen, "job status is %q, only open jobs can be taken", in.job.Status)
	}
	if in.job.Claimed() {
		return fail(name, RuleNotOpen, "job is already claimed by worker %s", in.job.MatchedWorkerID)
	}
	return pass(name)
}

func checkTemporal(in *input) Outcome {
	const name = "temporal"
	if in.job.EndsAt.IsZero() {
		return pass(name)
	}
	if !in.job.EndsAt.After(in.now) {
		return fail(name, RuleExpired, "job ended at %s", in.job.EndsAt.UTC().Format(time.RFC3339))
	}
	return pass(name)
}

func checkCategory(in *input) Outcome {
	const name = "category"
	if len(in.worker.Categories) == 0 {
		return fail(name, RuleCategoryMismatch, "worker has no categories selected")
	}
	if !newTagSet(in.worker.Categories).has(in.job.Category) {
		return fail(name, RuleCategoryMismatch, "category %q is not among worker categories", in.job.Category)
	}
	return pass(name)
}

func checkRequiredAll(in *input) Outcome {
	const name = "required_all_tags"
	held := newTagSet(in.worker.SelectedTags)

	var missing []string
	for _, tag := range in.job.RequiredAllTags {
		if normalizeTag(tag) == "" {
			continue
		}
		if !held.has(tag) {
			missing = append(missing, tag)
		}
	}
	if len(missing) > 0 {
		return fail(name, RuleMissingRequiredTag, "missing required tags: %s", strings.Join(missing, ", "))
	}
	return pass(name)
}

func checkRequiredAny(in *input) Outcome {
	const name = "required_any_tags"
	wanted := newTagSet(in.job.RequiredAnyTags)
	if len(wanted) == 0 {
		return pass(name)
	}
	held := newTagSet(in.worker.SelectedTags)
	for tag := range wanted {
		if _, ok := held[tag]; ok {
			return pass(name)
		}
	}
	return fail(name, RuleNoOptionalTagMatch, "none of the tags %s is held by the worker", strings.Join(in.job.RequiredAnyTags, ", "))
}

func checkDistance(in *input) Outcome {
	const name = "distance"
	home, site := in.worker.HomeLocation, in.job.Location
	switch {
	case home == nil && site == nil:
		return fail(name, RuleUnknownLocation, "worker home and job location are unknown")
	case home == nil:
		return fail(name, RuleUnknownLocation, "worker home location is unknown")
	case site == nil:
		return fail(name, RuleUnknownLocation, "job location is unknown")
	}
	radius := in.worker.RadiusKm

	d := Haversine(*home, *site)
	if d > radius {
		out := fail(name, RuleOutOfRadius, "job is %.1f km away, radius is %.1f km", d, radius)
		out.DistanceKm, out.HasDistance = d, true
		return out
	}
	return Outcome{Rule: name, Passed: true, DistanceKm: d, HasDistance: true}
}
