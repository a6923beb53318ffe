package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/matching"
)

const applicationsPath = "/applications"

type Applications []*Application

type Application struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	WorkerID  string    `json:"workerId"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// GetApplications lists the applications the worker has sent.
func (c *Client) GetApplications(ctx context.Context, workerID string) (Applications, error) {
	q := url.Values{}
	q.Set("worker_id", workerID)

	items, err := c.GetItems(ctx, applicationsPath, q)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	var applications Applications
	if err := decode(items, &applications); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}

	return applications, nil
}

func (a Applications) JobIDs() []string {
	ids := make([]string, 0, len(a))
	for _, app := range a {
		ids = append(ids, app.JobID)
	}
	return ids
}

// Apply sends an application for the job on behalf of the worker.
func (c *Client) Apply(ctx context.Context, workerID string, job *matching.JobPosting, message string) error {
	payload := Application{
		JobID:    job.ID,
		WorkerID: workerID,
		Message:  message,
	}

	// The key is shared by every retry of this call so the backend applies once.
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	resp, err := c.postJSON(ctx, applicationsPath, payload, headers)
	if err != nil {
		return fmt.Errorf("apply to job %s: %w", job.ID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return fmt.Errorf("apply to job %s: %w", job.ID, ErrAlreadyApplied)
	default:
		if err := checkStatus(resp, http.StatusCreated); err != nil {
			return fmt.Errorf("apply to job %s: %w", job.ID, err)
		}
	}

	c.log().Debug("application created", zap.String("job_id", job.ID), zap.String("worker_id", workerID))
	return nil
}
