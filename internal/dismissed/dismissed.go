// Package dismissed keeps the list of jobs a worker does not want to see again.
package dismissed

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/shiftmatch/internal/feed"
)

type Dismissed struct {
	Items []*DismissedJob
}

type DismissedJob struct {
	ID          string
	Title       string
	Category    string
	Reason      string
	DismissedAt time.Time
}

// FromFeed marks every job in f as dismissed at now.
func FromFeed(f *feed.Feed, reason string, now time.Time) *Dismissed {
	d := &Dismissed{}
	for _, e := range f.Entries {
		d.Items = append(d.Items, &DismissedJob{
			ID:          e.Job.ID,
			Title:       e.Job.Title,
			Category:    e.Job.Category,
			Reason:      reason,
			DismissedAt: now.UTC(),
		})
	}
	return d
}

// LoadFile reads the dismissed list. A missing or empty file is an empty list.
func LoadFile(path string) (*Dismissed, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Dismissed{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Dismissed{}, nil
	}

	var d Dismissed
	if err := json.NewDecoder(file).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Append adds the items of s that are not in d yet.
func (d *Dismissed) Append(s *Dismissed) {
	seen := make(map[string]struct{}, len(d.Items))
	for _, item := range d.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		d.Items = append(d.Items, item)
	}
}

func (d *Dismissed) Len() int {
	return len(d.Items)
}

func (d *Dismissed) IDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (d *Dismissed) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
