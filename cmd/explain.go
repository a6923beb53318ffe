package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spigell/shiftmatch/internal/logger"
	"github.com/spigell/shiftmatch/internal/matching"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var explainCmd = &cobra.Command{
	Use:   "explain <job-id>",
	Short: "Show every matching rule verdict for a single job",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runExplain(strings.TrimSpace(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(jobID string) {
	ctx := context.Background()

	l, config := setup("explain")

	client, err := newClient(config, l)
	if err != nil {
		l.Fatal("creating backend client", zap.Error(err), zap.String("hint", tokenHint))
	}

	worker, err := loadWorker(ctx, client, config)
	if err != nil {
		l.Fatal("loading worker profile", zap.Error(err))
	}

	jobs, err := loadJobs(ctx, client, config, l)
	if err != nil {
		l.Fatal("getting open jobs", zap.Error(err))
	}

	for i := range jobs {
		if jobs[i].ID == jobID {
			explain(logger.ForWorker(l, worker), &jobs[i], worker, time.Now())
			return
		}
	}

	l.Fatal("job not found", zap.String(logger.FieldJobID, jobID))
}

// explain logs the verdict of every rule, then the final one.
func explain(l *zap.Logger, job *matching.JobPosting, worker *matching.WorkerProfile, now time.Time) {
	l = logger.WithFields(l, logger.JobFields(job)...)

	for _, out := range matching.Trace(job, worker, now) {
		fields := []zap.Field{zap.String("rule_name", out.Rule), zap.Bool("passed", out.Passed)}
		fields = append(fields, logger.StringFields(
			logger.StringField{Key: logger.FieldRule, Value: string(out.FailedRule)},
			logger.StringField{Key: logger.FieldReason, Value: out.Explanation},
		)...)
		if out.HasDistance {
			fields = append(fields, zap.Float64(logger.FieldDistanceKm, out.DistanceKm))
		}
		l.Info("rule", fields...)
	}

	res := matching.Evaluate(job, worker, now)
	l.Info("verdict", append([]zap.Field{zap.Bool("match", res.IsMatch)}, logger.ResultFields(res)...)...)
}
