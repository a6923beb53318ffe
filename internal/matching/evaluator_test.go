package matching

import (
	"math"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func berlinJob() *JobPosting {
	return &JobPosting{
		ID:        "j1",
		Category:  "cleaning",
		Status:    StatusOpen,
		Location:  &Location{Lat: 52.52, Lng: 13.40},
		CreatedAt: testNow.Add(-time.Hour),
	}
}

func berlinWorker() *WorkerProfile {
	return &WorkerProfile{
		ID:           "w1",
		Categories:   []string{"cleaning"},
		HomeLocation: &Location{Lat: 52.50, Lng: 13.38},
		RadiusKm:     10,
	}
}

func TestEvaluateScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		job    func(j *JobPosting)
		worker func(w *WorkerProfile)
		match  bool
		rule   RuleID
	}{
		{
			name:  "nearby cleaning job matches",
			match: true,
		},
		{
			name:   "radius too small",
			worker: func(w *WorkerProfile) { w.RadiusKm = 1 },
			rule:   RuleOutOfRadius,
		},
		{
			name: "missing license",
			job:  func(j *JobPosting) { j.RequiredAllTags = []string{"34a-license"} },
			rule: RuleMissingRequiredTag,
		},
		{
			name: "claimed job",
			job: func(j *JobPosting) {
				j.Status = StatusMatched
				j.MatchedWorkerID = "w1"
			},
			rule: RuleNotOpen,
		},
		{
			name:   "worker without categories",
			job:    func(j *JobPosting) { j.Category = "security" },
			worker: func(w *WorkerProfile) { w.Categories = nil },
			rule:   RuleCategoryMismatch,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job, worker := berlinJob(), berlinWorker()
			if tt.job != nil {
				tt.job(job)
			}
			if tt.worker != nil {
				tt.worker(worker)
			}

			res := Evaluate(job, worker, testNow)
			if res.IsMatch != tt.match {
				t.Fatalf("expected match %v, got %+v", tt.match, res)
			}
			if res.FailedRule != tt.rule {
				t.Fatalf("expected rule %q, got %q", tt.rule, res.FailedRule)
			}
			if !tt.match && res.Explanation == "" {
				t.Fatalf("expected explanation for failed rule %q", res.FailedRule)
			}
		})
	}
}

func TestEvaluateReportsDistance(t *testing.T) {
	res := Evaluate(berlinJob(), berlinWorker(), testNow)
	if !res.HasDistance {
		t.Fatalf("expected distance to be reported")
	}
	if res.DistanceKm < 2 || res.DistanceKm > 3 {
		t.Fatalf("expected distance between 2 and 3 km, got %v", res.DistanceKm)
	}
}

func TestEvaluateClaimedOpenJob(t *testing.T) {
	job := berlinJob()
	job.MatchedWorkerID = "w9"

	res := Evaluate(job, berlinWorker(), testNow)
	if res.IsMatch || res.FailedRule != RuleNotOpen {
		t.Fatalf("expected claimed open job to fail with not_open, got %+v", res)
	}
}

func TestEvaluateNonOpenStatuses(t *testing.T) {
	t.Parallel()

	for _, st := range []Status{StatusDraft, StatusMatched, StatusDone, StatusCanceled} {
		job := berlinJob()
		job.Status = st
		if res := Evaluate(job, berlinWorker(), testNow); res.FailedRule != RuleNotOpen {
			t.Fatalf("status %s: expected not_open, got %+v", st, res)
		}
	}
}

func TestEvaluateExpiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		endsAt time.Time
		rule   RuleID
	}{
		{name: "no end", endsAt: time.Time{}, rule: RuleNone},
		{name: "ends later", endsAt: testNow.Add(time.Minute), rule: RuleNone},
		{name: "ends now", endsAt: testNow, rule: RuleExpired},
		{name: "ended", endsAt: testNow.Add(-time.Minute), rule: RuleExpired},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := berlinJob()
			job.EndsAt = tt.endsAt
			if res := Evaluate(job, berlinWorker(), testNow); res.FailedRule != tt.rule {
				t.Fatalf("expected rule %q, got %+v", tt.rule, res)
			}
		})
	}
}

func TestEvaluateEmptyCategoriesAlwaysDeny(t *testing.T) {
	worker := berlinWorker()
	worker.Categories = []string{}

	for _, category := range []string{"cleaning", "security", "gastro"} {
		job := berlinJob()
		job.Category = category
		res := Evaluate(job, worker, testNow)
		if res.IsMatch {
			t.Fatalf("category %s: expected deny for worker without categories", category)
		}
	}
}

func TestEvaluateCategoryNormalization(t *testing.T) {
	job := berlinJob()
	job.Category = "  Cleaning "

	if res := Evaluate(job, berlinWorker(), testNow); !res.IsMatch {
		t.Fatalf("expected normalized category to match, got %+v", res)
	}
}

func TestEvaluateRequiredAllTagsNamesEveryMissingTag(t *testing.T) {
	job := berlinJob()
	job.RequiredAllTags = []string{"34a-license", "first-aid", "german-b2"}
	worker := berlinWorker()
	worker.SelectedTags = []string{"first-aid"}

	res := Evaluate(job, worker, testNow)
	if res.FailedRule != RuleMissingRequiredTag {
		t.Fatalf("expected missing_required_tag, got %+v", res)
	}
	if !strings.Contains(res.Explanation, "34a-license") || !strings.Contains(res.Explanation, "german-b2") {
		t.Fatalf("expected explanation to name missing tags, got %q", res.Explanation)
	}
	if strings.Contains(res.Explanation, "first-aid") {
		t.Fatalf("held tag must not be reported as missing: %q", res.Explanation)
	}

	worker.SelectedTags = []string{"FIRST-AID", "34a-license", "german-b2", "forklift"}
	if res := Evaluate(job, worker, testNow); !res.IsMatch {
		t.Fatalf("expected superset of tags to match, got %+v", res)
	}
}

func TestEvaluateRequiredAnyTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		any  []string
		held []string
		rule RuleID
	}{
		{name: "empty set imposes nothing", any: nil, held: nil, rule: RuleNone},
		{name: "disjoint", any: []string{"forklift", "crane"}, held: []string{"first-aid"}, rule: RuleNoOptionalTagMatch},
		{name: "one overlaps", any: []string{"forklift", "crane"}, held: []string{"crane"}, rule: RuleNone},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := berlinJob()
			job.RequiredAnyTags = tt.any
			worker := berlinWorker()
			worker.SelectedTags = tt.held
			if res := Evaluate(job, worker, testNow); res.FailedRule != tt.rule {
				t.Fatalf("expected rule %q, got %+v", tt.rule, res)
			}
		})
	}
}

func TestEvaluateTagInBothSets(t *testing.T) {
	job := berlinJob()
	job.RequiredAllTags = []string{"34a-license"}
	job.RequiredAnyTags = []string{"34a-license", "first-aid"}
	worker := berlinWorker()
	worker.SelectedTags = []string{"34a-license"}

	if res := Evaluate(job, worker, testNow); !res.IsMatch {
		t.Fatalf("expected one tag to satisfy both sets, got %+v", res)
	}
}

func TestEvaluateRadiusBoundary(t *testing.T) {
	job, worker := berlinJob(), berlinWorker()
	d := Haversine(*worker.HomeLocation, *job.Location)

	worker.RadiusKm = d
	if res := Evaluate(job, worker, testNow); !res.IsMatch {
		t.Fatalf("expected distance equal to radius to pass, got %+v", res)
	}

	worker.RadiusKm = d - 1e-9
	if res := Evaluate(job, worker, testNow); res.FailedRule != RuleOutOfRadius {
		t.Fatalf("expected distance above radius to fail, got %+v", res)
	}
}

func TestEvaluateMissingCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		home *Location
		site *Location
	}{
		{name: "no home", home: nil, site: &Location{Lat: 52.52, Lng: 13.40}},
		{name: "no site", home: &Location{Lat: 52.5, Lng: 13.38}, site: nil},
		{name: "neither", home: nil, site: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job, worker := berlinJob(), berlinWorker()
			job.Location = tt.site
			worker.HomeLocation = tt.home

			res := Evaluate(job, worker, testNow)
			if res.IsMatch || res.FailedRule != RuleUnknownLocation {
				t.Fatalf("expected unknown_location, got %+v", res)
			}
			if res.HasDistance {
				t.Fatalf("distance must not be reported without coordinates")
			}
		})
	}
}

func TestEvaluateInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		job    func() *JobPosting
		worker func() *WorkerProfile
	}{
		{name: "nil job", job: func() *JobPosting { return nil }, worker: berlinWorker},
		{name: "nil worker", job: berlinJob, worker: func() *WorkerProfile { return nil }},
		{
			name: "no category",
			job: func() *JobPosting {
				j := berlinJob()
				j.Category = " "
				return j
			},
			worker: berlinWorker,
		},
		{
			name: "legacy pending status",
			job: func() *JobPosting {
				j := berlinJob()
				j.Status = "pending"
				return j
			},
			worker: berlinWorker,
		},
		{
			name: "zero radius",
			job:  berlinJob,
			worker: func() *WorkerProfile {
				w := berlinWorker()
				w.RadiusKm = 0
				return w
			},
		},
		{
			name: "nan radius",
			job:  berlinJob,
			worker: func() *WorkerProfile {
				w := berlinWorker()
				w.RadiusKm = math.NaN()
				return w
			},
		},
		{
			name: "latitude out of range",
			job: func() *JobPosting {
				j := berlinJob()
				j.Location = &Location{Lat: 152.5, Lng: 13.4}
				return j
			},
			worker: berlinWorker,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Evaluate(tt.job(), tt.worker(), testNow)
			if res.IsMatch || res.FailedRule != RuleInvalidInput {
				t.Fatalf("expected invalid_input, got %+v", res)
			}
		})
	}
}

func TestInvalidInputWinsOverRuleFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rules  []Rule
		job    func(j *JobPosting)
		worker func(w *WorkerProfile)
	}{
		{
			name:   "zero radius and missing required tag",
			rules:  DefaultRules,
			job:    func(j *JobPosting) { j.RequiredAllTags = []string{"forklift"} },
			worker: func(w *WorkerProfile) { w.RadiusKm = 0 },
		},
		{
			name:  "zero radius and no home",
			rules: DefaultRules,
			job:   func(*JobPosting) {},
			worker: func(w *WorkerProfile) {
				w.RadiusKm = 0
				w.HomeLocation = nil
			},
		},
		{
			name:   "negative radius and done job under radius rules",
			rules:  RadiusRules,
			job:    func(j *JobPosting) { j.Status = StatusDone },
			worker: func(w *WorkerProfile) { w.RadiusKm = -5 },
		},
		{
			name:   "home out of range and category mismatch",
			rules:  DefaultRules,
			job:    func(j *JobPosting) { j.Category = "security" },
			worker: func(w *WorkerProfile) { w.HomeLocation = &Location{Lat: 52.5, Lng: 213.4} },
		},
		{
			name:   "nan job latitude and expired job",
			rules:  DefaultRules,
			job:    func(j *JobPosting) { j.Location.Lat, j.EndsAt = math.NaN(), testNow.Add(-time.Hour) },
			worker: func(*WorkerProfile) {},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job, worker := berlinJob(), berlinWorker()
			tt.job(job)
			tt.worker(worker)

			res := EvaluateWith(tt.rules, job, worker, testNow)
			if res.IsMatch || res.FailedRule != RuleInvalidInput {
				t.Fatalf("expected invalid_input, got %+v", res)
			}

			trace := Trace(job, worker, testNow)
			if len(trace) != 1 || trace[0].FailedRule != RuleInvalidInput {
				t.Fatalf("expected single invalid_input outcome in trace, got %+v", trace)
			}
		})
	}
}

func TestWhitespaceMatchedWorkerIsClaimed(t *testing.T) {
	job := berlinJob()
	job.MatchedWorkerID = " "

	if !job.Claimed() {
		t.Fatalf("expected non-empty matched worker id to claim the job")
	}
	if res := Evaluate(job, berlinWorker(), testNow); res.FailedRule != RuleNotOpen {
		t.Fatalf("expected not_open, got %+v", res)
	}
}

func TestEvaluateDoesNotMutateInputs(t *testing.T) {
	job, worker := berlinJob(), berlinWorker()
	job.RequiredAllTags = []string{" First-Aid "}
	worker.SelectedTags = []string{"first-aid"}

	Evaluate(job, worker, testNow)

	if job.RequiredAllTags[0] != " First-Aid " || worker.SelectedTags[0] != "first-aid" {
		t.Fatalf("inputs were modified: %v %v", job.RequiredAllTags, worker.SelectedTags)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	job, worker := berlinJob(), berlinWorker()
	job.RequiredAnyTags = []string{"a", "b", "c"}
	worker.SelectedTags = []string{"x"}

	first := Evaluate(job, worker, testNow)
	for i := 0; i < 50; i++ {
		if got := Evaluate(job, worker, testNow); got != first {
			t.Fatalf("run %d: expected %+v, got %+v", i, first, got)
		}
	}
}

func TestEvaluateWithRadiusRules(t *testing.T) {
	job, worker := berlinJob(), berlinWorker()
	job.Category = "security"
	job.RequiredAllTags = []string{"34a-license"}

	if res := Evaluate(job, worker, testNow); res.IsMatch {
		t.Fatalf("expected default rules to reject job")
	}
	res := EvaluateWith(RadiusRules, job, worker, testNow)
	if !res.IsMatch || !res.HasDistance {
		t.Fatalf("expected radius rules to accept job with distance, got %+v", res)
	}
}

func TestTraceRunsEveryRule(t *testing.T) {
	job, worker := berlinJob(), berlinWorker()
	job.Status = StatusDone
	job.RequiredAllTags = []string{"forklift"}
	worker.RadiusKm = 1

	outcomes := Trace(job, worker, testNow)
	if len(outcomes) != len(DefaultRules) {
		t.Fatalf("expected %d outcomes, got %d", len(DefaultRules), len(outcomes))
	}

	failed := map[RuleID]bool{}
	for _, o := range outcomes {
		if !o.Passed {
			failed[o.FailedRule] = true
		}
	}
	for _, want := range []RuleID{RuleNotOpen, RuleMissingRequiredTag, RuleOutOfRadius} {
		if !failed[want] {
			t.Fatalf("expected %q in trace, got %+v", want, outcomes)
		}
	}
	if failed[RuleCategoryMismatch] {
		t.Fatalf("category rule should pass in trace")
	}

	invalid := Trace(nil, worker, testNow)
	if len(invalid) != 1 || invalid[0].FailedRule != RuleInvalidInput {
		t.Fatalf("expected single invalid_input outcome, got %+v", invalid)
	}
}

func TestFilterEligibleKeepsOrder(t *testing.T) {
	worker := berlinWorker()

	far := *berlinJob()
	far.ID = "far"
	far.Location = &Location{Lat: 48.13, Lng: 11.58}

	a := *berlinJob()
	a.ID = "a"
	b := *berlinJob()
	b.ID = "b"
	b.Location = &Location{Lat: 52.50, Lng: 13.38}

	got := FilterEligible([]JobPosting{a, far, b}, worker, testNow)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected [a b], got %+v", got)
	}

	if empty := FilterEligible(nil, worker, testNow); len(empty) != 0 {
		t.Fatalf("expected no jobs, got %d", len(empty))
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"draft", "open", "matched", "done", "canceled", " OPEN "} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"", "pending", "closed"} {
		if _, err := ParseStatus(s); err == nil {
			t.Fatalf("ParseStatus(%q) expected error", s)
		}
	}
}

func TestHaversine(t *testing.T) {
	berlin := Location{Lat: 52.5200, Lng: 13.4050}
	munich := Location{Lat: 48.1351, Lng: 11.5820}

	d := Haversine(berlin, munich)
	if math.Abs(d-504) > 2 {
		t.Fatalf("expected about 504 km between Berlin and Munich, got %v", d)
	}
	if Haversine(berlin, berlin) != 0 {
		t.Fatalf("expected zero distance for identical points")
	}
	if math.Abs(Haversine(berlin, munich)-Haversine(munich, berlin)) > 1e-9 {
		t.Fatalf("expected symmetric distance")
	}
}
