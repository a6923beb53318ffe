// Package backend talks to the ShiftMatch REST API.
package backend

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/logger"
)

const (
	apiURL    = "https://api.shiftmatch.app/v1"
	userAgent = "spigell/shiftmatch (spigelly@gmail.com)"
	// Max value for listing per page.
	perPage = "100"

	defaultMaxRetries = 2
	defaultRetryDelay = 500 * time.Millisecond
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyApplied = errors.New("already applied")
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// MaxRetries is the number of extra attempts for 429, 5xx and transport errors.
	MaxRetries int
	RetryDelay time.Duration
}

func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent:  userAgent,
		MaxRetries: defaultMaxRetries,
		RetryDelay: defaultRetryDelay,
	}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.APIURL, "/") + path
}

func (c *Client) log() *zap.Logger {
	return logger.OrNop(c.logger)
}
