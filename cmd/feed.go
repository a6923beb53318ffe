package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/shiftmatch/internal/backend"
	"github.com/spigell/shiftmatch/internal/dismissed"
	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/filtering"
	"github.com/spigell/shiftmatch/internal/logger"
	"github.com/spigell/shiftmatch/internal/matching"
	"github.com/spigell/shiftmatch/internal/utils"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes                = "Yes"
	PromptNo                 = "No"
	PromptBack               = "back"
	PromptReportByCategory   = "Report by category"
	PromptManualApply        = "Apply jobs in manual mode"
	PromptExplain            = "Explain a job"
	PromptDismissAllToFile   = "Dismiss all jobs to file"
	PromptJobsToFile         = "Dump jobs to file"
	defaultFallbackMessage   = "Hello! I can take this shift."
	maxLabelTitleLength      = 60
	appliedHistoryFilterName = "applied_history"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Apply to all jobs?",
	Items: []string{PromptYes, PromptNo, PromptReportByCategory, PromptManualApply, PromptExplain, PromptJobsToFile},
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the jobs the worker can take and apply to them",
	Run: func(cmd *cobra.Command, _ []string) {
		runFeed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().BoolP("include-applied", "f", false, "do not exclude jobs the worker already applied to")
	feedCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation if found suitable jobs")
	feedCmd.Flags().StringP("dismissed-file", "e", "", "special file with jobs to hide. Default is unset.")

	viper.BindPFlag("dismissed-file", feedCmd.Flags().Lookup("dismissed-file"))
}

type session struct {
	client   *backend.Client
	logger   *zap.Logger
	config   *Config
	worker   *matching.WorkerProfile
	workerID string
}

// runFeed is the main command for the cli.
func runFeed(cmd *cobra.Command) {
	ctx := context.Background()

	l, config := setup("feed")

	client, err := newClient(config, l)
	if err != nil {
		l.Fatal("creating backend client", zap.Error(err), zap.String("hint", tokenHint))
	}

	worker, err := loadWorker(ctx, client, config)
	if err != nil {
		l.Fatal("loading worker profile", zap.Error(err))
	}

	l = logger.ForWorker(l, worker)

	jobs, err := loadJobs(ctx, client, config, l)
	if err != nil {
		l.Fatal("getting open jobs", zap.Error(err))
	}

	if len(jobs) == 0 {
		l.Info("exiting", zap.String("reason", "no open jobs found"))
		return
	}

	s := &session{client: client, logger: l, config: config, worker: worker, workerID: workerID(config, worker)}

	filters := prepareFilters(cmd, s)

	jobFeed, err := filters.RunFilters(ctx, feed.FromJobs(jobs))
	if err != nil {
		l.Fatal("filtering failed", zap.Error(err))
	}

	if jobFeed.Len() == 0 {
		l.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				l.Fatal("exiting", zap.Error(err))
			}
		}

		l.Info("current list of jobs", zap.Int("count", jobFeed.Len()))

		if err := s.handleAction(ctx, action, jobFeed); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			l.Fatal("exiting", zap.Error(err))
		}

		if jobFeed.Len() == 0 {
			l.Info("exiting", zap.String("reason", "no jobs left"))
			return
		}
	}
}

func (s *session) handleAction(ctx context.Context, action string, jobFeed *feed.Feed) error {
	switch action {
	case PromptYes:
		if err := s.apply(ctx, jobFeed); err != nil {
			return err
		}
		// Every job in the feed was handled.
		return errExit
	case PromptNo:
		s.logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptManualApply:
		return s.manualApply(ctx, jobFeed)
	case PromptExplain:
		return s.explainFromFeed(jobFeed)
	case PromptReportByCategory:
		pretty, _ := json.MarshalIndent(jobFeed.ReportByCategory(), "", "  ")
		s.logger.Info(string(pretty), zap.Int("jobs count", jobFeed.Len()))
		return nil
	case PromptJobsToFile:
		filename, err := jobFeed.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		s.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func jobLabel(e *feed.Entry) string {
	label := fmt.Sprintf("%s %s / %s", e.Job.ID, utils.Truncate(e.Job.Title, maxLabelTitleLength), e.Job.Category)
	if e.Result.HasDistance {
		label += fmt.Sprintf(" / %.1f km", e.Result.DistanceKm)
	}
	if !e.Job.EndsAt.IsZero() {
		label += " / until " + e.Job.EndsAt.Local().Format("Jan 2 15:04")
	}
	return label
}

func (s *session) selectJob(label string, jobFeed *feed.Feed, extra ...string) (string, error) {
	items := make([]string, 0, jobFeed.Len()+len(extra)+1)
	for _, e := range jobFeed.Entries {
		items = append(items, jobLabel(e))
	}
	items = append(items, extra...)

	jobPrompt := promptui.Select{
		Label: label,
		Items: append(items, PromptBack),
	}

	_, selected, err := jobPrompt.Run()
	return selected, err
}

func (s *session) manualApply(ctx context.Context, jobFeed *feed.Feed) error {
	for {
		var extra []string
		dismissedFile := viper.GetString("dismissed-file")
		if dismissedFile != "" && jobFeed.Len() != 0 {
			extra = append(extra, PromptDismissAllToFile)
		}

		selected, err := s.selectJob("Choose a job and press ENTER", jobFeed, extra...)
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptDismissAllToFile:
			if err := s.dismissAll(dismissedFile, jobFeed); err != nil {
				return err
			}
			return nil
		default:
			jobID := strings.Split(selected, " ")[0]

			entry := jobFeed.FindByID(jobID)
			if entry == nil {
				return fmt.Errorf("there is no such job id %s", jobID)
			}

			if err = s.apply(ctx, &feed.Feed{Entries: []*feed.Entry{entry}}); err != nil {
				return err
			}

			jobFeed.Exclude([]string{jobID})
			if jobFeed.Len() == 0 {
				return nil
			}
		}
	}
}

func (s *session) dismissAll(path string, jobFeed *feed.Feed) error {
	list, err := dismissed.LoadFile(path)
	if err != nil {
		return err
	}

	list.Append(dismissed.FromFeed(jobFeed, "dismissed from feed", time.Now()))

	if err = list.ToFile(path); err != nil {
		return err
	}

	s.logger.Info("appended to dismissed file", zap.String("filename", path), zap.Int("count", list.Len()))

	jobFeed.Exclude(list.IDs())
	return nil
}

func (s *session) explainFromFeed(jobFeed *feed.Feed) error {
	selected, err := s.selectJob("Choose a job to explain", jobFeed)
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	entry := jobFeed.FindByID(strings.Split(selected, " ")[0])
	if entry == nil {
		return fmt.Errorf("there is no such job %s", selected)
	}

	explain(s.logger, &entry.Job, s.worker, time.Now())
	return nil
}

func (s *session) apply(ctx context.Context, jobFeed *feed.Feed) error {
	if s.client == nil {
		return errors.New("applying requires a backend: configure backend.token-file")
	}

	defaultMessage := ""
	if s.config.Apply != nil {
		defaultMessage = s.config.Apply.Message
	}

	message := defaultMessage
	if message == "" {
		message = defaultFallbackMessage
		s.logger.Warn("falling back to default built-in message",
			zap.String("hint", "specify message in apply section"),
		)
	}

	applied := 0
	for _, e := range jobFeed.Entries {
		err := s.client.Apply(ctx, s.workerID, &e.Job, message)
		if errors.Is(err, backend.ErrAlreadyApplied) {
			s.logger.Info("skipping job", append(logger.JobFields(&e.Job), zap.String("reason", "already applied"))...)
			continue
		}
		if err != nil {
			return err
		}
		applied++

		s.logger.Info("successfully applied to job",
			zap.String(logger.FieldJobID, e.Job.ID),
			zap.String("job_title", e.Job.Title),
		)
	}

	s.logger.Info("successfully applied to jobs", zap.Int("count", applied))
	return nil
}

func prepareFilters(cmd *cobra.Command, s *session) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewEligibility(&filtering.EligibilityConfig{Worker: s.worker}, s.logger),
		prepareAppliedHistoryFilter(cmd, s),
		filtering.NewDismissedFile(viper.GetString("dismissed-file"), s.logger),
	}

	filters := filtering.New(steps, s.logger)
	if s.client == nil {
		filters.DisableByName(appliedHistoryFilterName, "no backend configured")
	}

	for _, status := range filters.Describe() {
		s.logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return filters
}

func prepareAppliedHistoryFilter(cmd *cobra.Command, s *session) filtering.Filter {
	ignore := false
	if cmd != nil {
		flag := cmd.Flag("include-applied")
		if flag != nil && strings.EqualFold(flag.Value.String(), "true") {
			ignore = true
		}
	}

	cfg := &filtering.AppliedHistoryConfig{WorkerID: s.workerID, Ignore: ignore}
	deps := &filtering.AppliedHistoryDeps{Logger: s.logger}
	// A nil *backend.Client must not become a non-nil interface.
	if s.client != nil {
		deps.Backend = s.client
	}

	return filtering.NewAppliedHistory(cfg, deps)
}
