// Package apifetch is the read-only client for the upstream marketplace API.
//
// Fetch failures never surface as errors: a cycle that cannot reach the
// upstream degrades to an empty snapshot and zero job counts, and the
// failure is logged. The caller decides what an empty snapshot means.
package apifetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client fetches agent and job snapshots from the marketplace API.
type Client struct {
	http   *http.Client
	config Config
	log    *slog.Logger
}

// Config configures the upstream client.
type Config struct {
	BaseURL string `yaml:"base_url"` // e.g. https://www.openwork.bot/api
	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
	// MaxBytes caps response body size. Default: 10MB.
	MaxBytes int64 `yaml:"max_bytes"`
	// UserAgent sent with requests.
	UserAgent string `yaml:"user_agent"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.openwork.bot/api"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.UserAgent == "" {
		c.UserAgent = "moltcities-pulse/1.0"
	}
}

// New creates a Client. A nil logger falls back to slog.Default().
func New(cfg Config, log *slog.Logger) *Client {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		log:    log,
	}
}

// Agent is one normalized upstream agent record.
type Agent struct {
	ID          string
	Name        string
	Reputation  int
	Status      string
	Specialties []string
	TotalJobs   int
	// CreatedAt is the upstream registration time in unix milliseconds,
	// zero when absent or unparsable.
	CreatedAt int64
}

// wireAgent is the raw upstream shape. Pointer fields distinguish an
// absent value from an explicit zero.
type wireAgent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Reputation  *int     `json:"reputation"`
	Status      string   `json:"status"`
	Specialties []string `json:"specialties"`
	TotalJobs   int      `json:"total_jobs"`
	CreatedAt   string   `json:"created_at"`
}

// Agents fetches the full agent roster. Returns nil on any failure.
func (c *Client) Agents(ctx context.Context) []Agent {
	body, err := c.get(ctx, "/agents")
	if err != nil {
		c.log.Error("fetch agents failed", "error", err)
		return nil
	}

	var raw []wireAgent
	if err := json.Unmarshal(body, &raw); err != nil {
		c.log.Error("decode agents failed", "error", err)
		return nil
	}

	agents := make([]Agent, 0, len(raw))
	for _, w := range raw {
		if w.ID == "" {
			continue
		}
		agents = append(agents, normalize(w))
	}
	return agents
}

// JobCount fetches the number of jobs with the given status.
// Returns 0 on any failure.
func (c *Client) JobCount(ctx context.Context, status string) int {
	body, err := c.get(ctx, "/jobs?status="+url.QueryEscape(status))
	if err != nil {
		c.log.Error("fetch jobs failed", "status", status, "error", err)
		return 0
	}

	var jobs []json.RawMessage
	if err := json.Unmarshal(body, &jobs); err != nil {
		c.log.Error("decode jobs failed", "status", status, "error", err)
		return 0
	}
	return len(jobs)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// normalize fills upstream gaps with display defaults.
func normalize(w wireAgent) Agent {
	a := Agent{
		ID:          w.ID,
		Name:        w.Name,
		Status:      w.Status,
		Specialties: w.Specialties,
		TotalJobs:   w.TotalJobs,
		Reputation:  50,
	}
	if w.Reputation != nil {
		a.Reputation = *w.Reputation
	}
	if a.Name == "" {
		a.Name = "Unknown"
	}
	if a.Status == "" {
		a.Status = "unknown"
	}
	if a.Specialties == nil {
		a.Specialties = []string{}
	}
	if w.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			a.CreatedAt = t.UnixMilli()
		}
	}
	return a
}
