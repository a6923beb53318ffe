package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spigell/shiftmatch/internal/matching"
)

const workersPath = "/workers"

// GetWorkerProfile fetches the worker profile by id.
func (c *Client) GetWorkerProfile(ctx context.Context, id string) (*matching.WorkerProfile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("worker id is required")
	}

	var raw map[string]any
	if err := c.getJSON(ctx, workersPath+"/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, fmt.Errorf("get worker %s: %w", id, err)
	}

	var profile matching.WorkerProfile
	if err := decode(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode worker %s: %w", id, err)
	}

	return &profile, nil
}
