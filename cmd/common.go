package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/shiftmatch/internal/backend"
	"github.com/spigell/shiftmatch/internal/logger"
	"github.com/spigell/shiftmatch/internal/matching"
	"github.com/spigell/shiftmatch/internal/secrets"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const tokenHint = "set SHIFTMATCH_TOKEN_FILE environment variable or the 'backend.token-file' key in the configuration file"

// setup builds the logger and reads the config. It exits on any failure.
func setup(command string) (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		l.Fatal("config is required")
	}

	l.Info("starting the shiftmatch", zap.String("command", command), zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return l, config
}

// newClient returns nil when no backend is needed: both the worker and the jobs are local.
func newClient(config *Config, l *zap.Logger) (*backend.Client, error) {
	if config.Worker != nil && strings.TrimSpace(config.JobsFile) != "" {
		return nil, nil
	}

	token, err := resolveToken(config)
	if err != nil {
		return nil, fmt.Errorf("loading backend token: %w", err)
	}

	client := backend.New(l, token)

	if b := config.Backend; b != nil {
		if b.URL != "" {
			client.APIURL = b.URL
		}
		if b.UserAgent != "" {
			client.UserAgent = b.UserAgent
		}
		if b.MaxRetries != nil {
			if *b.MaxRetries < 0 {
				return nil, fmt.Errorf("backend.max-retries must not be negative, got %d", *b.MaxRetries)
			}
			client.MaxRetries = *b.MaxRetries
		}
		if b.Timeout > 0 {
			client.HTTPClient.Timeout = b.Timeout
		}
	}

	return client, nil
}

func resolveToken(config *Config) (string, error) {
	if config == nil {
		return "", errors.New("config is required")
	}

	src := secrets.Source{
		Name: "backend token",
		File: viper.GetString("backend.token-file"),
		Env:  "SHIFTMATCH_TOKEN",
	}
	if config.Backend != nil {
		if file := strings.TrimSpace(config.Backend.TokenFile); file != "" {
			src.File = file
		}
		src.Value = config.Backend.Token
	}

	return secrets.Load(src)
}

// loadWorker prefers the inline profile and falls back to the backend.
func loadWorker(ctx context.Context, client *backend.Client, config *Config) (*matching.WorkerProfile, error) {
	if config.Worker != nil {
		return config.Worker.Profile(), nil
	}

	id := strings.TrimSpace(config.WorkerID)
	if id == "" {
		return nil, errors.New("either worker or worker-id must be set in the configuration")
	}

	if client == nil {
		return nil, errors.New("backend client is required to fetch the worker profile")
	}

	worker, err := client.GetWorkerProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting worker profile: %w", err)
	}
	return worker, nil
}

// loadJobs reads the jobs file when configured, otherwise lists open jobs from the backend.
func loadJobs(ctx context.Context, client *backend.Client, config *Config, l *zap.Logger) ([]matching.JobPosting, error) {
	if path := strings.TrimSpace(config.JobsFile); path != "" {
		jobs, err := backend.LoadJobsFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading jobs file: %w", err)
		}
		l.Info("getting jobs from file", zap.String("path", path), zap.Int("count", len(jobs)))
		return jobs, nil
	}

	if client == nil {
		return nil, errors.New("backend client is required to list jobs")
	}

	jobs, err := client.ListOpenJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing open jobs: %w", err)
	}
	l.Info("getting open jobs", zap.Int("count", len(jobs)))
	return jobs, nil
}

// workerID is the id used for applications: the inline profile id wins over worker-id.
func workerID(config *Config, worker *matching.WorkerProfile) string {
	if worker != nil && worker.ID != "" {
		return worker.ID
	}
	return strings.TrimSpace(config.WorkerID)
}
