package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/backend"
	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/logger"
)

const includeAppliedMsg = "include-applied flag is set"

// ApplicationLister lists what a worker has already applied to.
type ApplicationLister interface {
	GetApplications(ctx context.Context, workerID string) (backend.Applications, error)
}

type appliedHistoryFilter struct {
	toggle
	deps     *AppliedHistoryDeps
	logger   *zap.Logger
	workerID string
	ignore   bool
}

type AppliedHistoryDeps struct {
	Backend ApplicationLister
	Logger  *zap.Logger
}

type AppliedHistoryConfig struct {
	WorkerID string
	Ignore   bool
}

// NewAppliedHistory creates a filter that removes jobs the worker already applied to.
func NewAppliedHistory(cfg *AppliedHistoryConfig, deps *AppliedHistoryDeps) Filter {
	f := &appliedHistoryFilter{deps: deps, logger: zap.NewNop()}
	if deps != nil {
		f.logger = logger.OrNop(deps.Logger)
	}
	if cfg != nil {
		f.workerID = strings.TrimSpace(cfg.WorkerID)
		f.ignore = cfg.Ignore
	}
	return f
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Validate() error {
	if f.ignore {
		return nil
	}

	if f.deps == nil || f.deps.Backend == nil {
		return fmt.Errorf("backend client is required")
	}

	if f.workerID == "" {
		return fmt.Errorf("worker id is required")
	}

	return nil
}

func (f *appliedHistoryFilter) Apply(ctx context.Context, fd *feed.Feed) (*feed.Feed, Step, error) {
	initial := fd.Len()
	if f.ignore {
		f.logger.Info("keeping already applied jobs", zap.String("reason", includeAppliedMsg))
		return fd, Step{Initial: initial, Dropped: 0, Left: fd.Len()}, nil
	}

	applications, err := f.deps.Backend.GetApplications(ctx, f.workerID)
	if err != nil {
		return fd, Step{}, fmt.Errorf("get my applications: %w", err)
	}

	excluded := fd.Exclude(applications.JobIDs())
	if len(excluded) > 0 {
		f.logger.Info("excluding jobs based on my applications",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", fd.Len()),
		)
	}

	return fd, Step{Initial: initial, Dropped: len(excluded), Left: fd.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_applied": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
