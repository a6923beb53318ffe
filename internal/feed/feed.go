package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spigell/shiftmatch/internal/matching"
)

// Entry is an eligible job together with the verdict that admitted it.
type Entry struct {
	Job    matching.JobPosting  `json:"job"`
	Result matching.MatchResult `json:"result"`
}

// Feed is an ordered list of jobs ready for display.
type Feed struct {
	Entries []*Entry
}

// Build keeps the jobs that match the worker and orders them for display.
func Build(jobs []matching.JobPosting, worker *matching.WorkerProfile, now time.Time) *Feed {
	return build(matching.DefaultRules, jobs, worker, now)
}

// Nearby keeps every live job within the worker radius, regardless of qualifications.
func Nearby(jobs []matching.JobPosting, worker *matching.WorkerProfile, now time.Time) *Feed {
	return build(matching.RadiusRules, jobs, worker, now)
}

func build(rules []matching.Rule, jobs []matching.JobPosting, worker *matching.WorkerProfile, now time.Time) *Feed {
	f := FromJobs(jobs)
	f.Retain(rules, worker, now)
	f.Sort()
	return f
}

// FromJobs wraps jobs into a feed without evaluating them.
func FromJobs(jobs []matching.JobPosting) *Feed {
	f := &Feed{Entries: make([]*Entry, 0, len(jobs))}
	for i := range jobs {
		f.Entries = append(f.Entries, &Entry{Job: jobs[i]})
	}
	return f
}

// Rejection is a job dropped by Retain.
type Rejection struct {
	Job    matching.JobPosting
	Result matching.MatchResult
}

// Retain evaluates every entry, keeps the matching ones with their verdict and
// returns the rest.
func (f *Feed) Retain(rules []matching.Rule, worker *matching.WorkerProfile, now time.Time) []Rejection {
	var rejected []Rejection
	kept := f.Entries[:0]
	for _, e := range f.Entries {
		res := matching.EvaluateWith(rules, &e.Job, worker, now)
		if !res.IsMatch {
			rejected = append(rejected, Rejection{Job: e.Job, Result: res})
			continue
		}
		e.Result = res
		kept = append(kept, e)
	}
	f.Entries = kept
	return rejected
}

// Sort orders entries by distance, then newest first, then by id.
func (f *Feed) Sort() {
	sort.SliceStable(f.Entries, func(i, j int) bool {
		a, b := f.Entries[i], f.Entries[j]
		if a.Result.DistanceKm != b.Result.DistanceKm {
			return a.Result.DistanceKm < b.Result.DistanceKm
		}
		if !a.Job.CreatedAt.Equal(b.Job.CreatedAt) {
			return a.Job.CreatedAt.After(b.Job.CreatedAt)
		}
		return a.Job.ID < b.Job.ID
	})
}

func (f *Feed) Len() int {
	return len(f.Entries)
}

// Jobs returns the postings in feed order.
func (f *Feed) Jobs() []matching.JobPosting {
	jobs := make([]matching.JobPosting, 0, len(f.Entries))
	for _, e := range f.Entries {
		jobs = append(jobs, e.Job)
	}
	return jobs
}

func (f *Feed) IDs() []string {
	ids := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		ids = append(ids, e.Job.ID)
	}
	return ids
}

func (f *Feed) FindByID(id string) *Entry {
	for _, e := range f.Entries {
		if e.Job.ID == id {
			return e
		}
	}
	return nil
}

// Exclude drops entries with the given ids, keeping the order of the rest.
// It returns the ids that were actually removed.
func (f *Feed) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var excluded []string
	kept := f.Entries[:0]
	for _, e := range f.Entries {
		if _, ok := drop[e.Job.ID]; ok {
			excluded = append(excluded, e.Job.ID)
			continue
		}
		kept = append(kept, e)
	}
	f.Entries = kept
	return excluded
}

// ReportByCategory groups entries by job category for a quick overview.
func (f *Feed) ReportByCategory() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, e := range f.Entries {
		item := map[string]string{
			"id":    e.Job.ID,
			"title": e.Job.Title,
		}
		if e.Result.HasDistance {
			item["distance_km"] = fmt.Sprintf("%.1f", e.Result.DistanceKm)
		}
		if !e.Job.EndsAt.IsZero() {
			item["ends_at"] = e.Job.EndsAt.UTC().Format(time.RFC3339)
		}
		report[e.Job.Category] = append(report[e.Job.Category], item)
	}
	return report
}

func (f *Feed) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "shiftmatch_feed_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return "", err
	}
	return file.Name(), nil
}
