package matching

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is a job posting lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusOpen     Status = "open"
	StatusMatched  Status = "matched"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
)

var ErrUnknownStatus = errors.New("unknown job status")

var validStatuses = map[Status]struct{}{
	StatusDraft:    {},
	StatusOpen:     {},
	StatusMatched:  {},
	StatusDone:     {},
	StatusCanceled: {},
}

// ParseStatus converts a raw status value, rejecting anything outside the enum.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validStatuses[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// JobPosting is a short-term job as published by an employer.
type JobPosting struct {
	ID              string    `json:"id"`
	Title           string    `json:"title,omitempty"`
	Category        string    `json:"category"`
	RequiredAllTags []string  `json:"requiredAllTags,omitempty"`
	RequiredAnyTags []string  `json:"requiredAnyTags,omitempty"`
	Location        *Location `json:"location,omitempty"`
	Status          Status    `json:"status"`
	MatchedWorkerID string    `json:"matchedWorkerId,omitempty"`
	// EndsAt is the end of the shift. Zero value means the posting has no end.
	EndsAt    time.Time `json:"endsAt,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Claimed reports whether a worker has already been matched to the job.
func (j *JobPosting) Claimed() bool {
	return j.MatchedWorkerID != ""
}

// WorkerProfile describes what a worker is willing and qualified to take.
type WorkerProfile struct {
	ID           string    `json:"id"`
	Categories   []string  `json:"categories"`
	SelectedTags []string  `json:"selectedTags"`
	HomeLocation *Location `json:"homeLocation,omitempty"`
	RadiusKm     float64   `json:"radiusKm"`
}

type tagSet map[string]struct{}

func newTagSet(tags []string) tagSet {
	set := make(tagSet, len(tags))
	for _, t := range tags {
		if key := normalizeTag(t); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s tagSet) has(tag string) bool {
	_, ok := s[normalizeTag(tag)]
	return ok
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
