package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/shiftmatch/internal/matching"
)

const (
	jobsPath = "/jobs"
)

// ListOpenJobs returns every open job posting known to the backend.
func (c *Client) ListOpenJobs(ctx context.Context) ([]matching.JobPosting, error) {
	q := url.Values{}
	q.Set("status", string(matching.StatusOpen))

	items, err := c.GetItems(ctx, jobsPath, q)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return DecodeJobs(items)
}

// LoadJobsFile reads job postings saved on the device as a JSON array.
func LoadJobsFile(path string) ([]matching.JobPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse jobs file %q: %w", path, err)
	}

	return DecodeJobs(items)
}

// DecodeJobs converts untyped listing items into job postings.
func DecodeJobs(items []Item) ([]matching.JobPosting, error) {
	var jobs []matching.JobPosting
	if err := decode(items, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}
	return jobs, nil
}

func decode(input any, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:  result,
		TagName: "json",
		// Ids sometimes arrive as numbers.
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			statusHook,
		),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// statusHook normalizes status values. Unknown values are kept as they are so
// the evaluator reports them as invalid input instead of failing the whole listing.
func statusHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(matching.Status("")) {
		return data, nil
	}
	raw, _ := data.(string)
	if st, err := matching.ParseStatus(raw); err == nil {
		return st, nil
	}
	return raw, nil
}
