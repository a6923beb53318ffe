package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/shiftmatch/internal/feed"
	"github.com/spigell/shiftmatch/internal/filtering"
	"github.com/spigell/shiftmatch/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List every open job within the worker radius, ignoring categories and tags",
	Run: func(cmd *cobra.Command, _ []string) {
		runNearby(cmd)
	},
}

func init() {
	rootCmd.AddCommand(nearbyCmd)

	nearbyCmd.Flags().Bool("dump", false, "dump the jobs to a temporary file")
}

func runNearby(cmd *cobra.Command) {
	ctx := context.Background()

	l, config := setup("nearby")

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

	filters := filtering.New([]filtering.Filter{filtering.NewRadius(worker, nil, l)}, l)

	nearby, err := filters.RunFilters(ctx, feed.FromJobs(jobs))
	if err != nil {
		l.Fatal("filtering failed", zap.Error(err))
	}

	for _, e := range nearby.Entries {
		fmt.Println(jobLabel(e))
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := nearby.DumpToTmpFile()
		if err != nil {
			l.Fatal("dump results to file", zap.Error(err))
		}
		l.Info("dumping result to file", zap.String("filename", filename))
		return
	}

	pretty, _ := json.MarshalIndent(nearby.ReportByCategory(), "", "  ")
	l.Debug(string(pretty), zap.Int("jobs count", nearby.Len()))
}
