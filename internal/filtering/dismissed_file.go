package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/dismissed"
	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/logger"
)

type dismissedFileFilter struct {
	toggle
	path   string
	logger *zap.Logger
}

// NewDismissedFile creates a filter that removes jobs listed in the dismissed file.
func NewDismissedFile(path string, l *zap.Logger) Filter {
	return &dismissedFileFilter{
		path:   strings.TrimSpace(path),
		logger: logger.OrNop(l),
	}
}

func (f *dismissedFileFilter) Name() string { return "dismissed_file" }

func (f *dismissedFileFilter) Validate() error { return nil }

func (f *dismissedFileFilter) Apply(_ context.Context, fd *feed.Feed) (*feed.Feed, Step, error) {
	initial := fd.Len()
	if f.path == "" {
		return fd, Step{Initial: initial, Dropped: 0, Left: fd.Len()}, nil
	}

	list, err := dismissed.LoadFile(f.path)
	if err != nil {
		return fd, Step{}, fmt.Errorf("getting dismissed jobs from file: %w", err)
	}

	removed := fd.Exclude(list.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding jobs based on dismissed file",
			zap.String("path", f.path),
			zap.Strings("excluded_jobs", removed),
			zap.Int("jobs_left", fd.Len()),
		)
	}

	return fd, Step{Initial: initial, Dropped: len(removed), Left: fd.Len()}, nil
}

func (f *dismissedFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
