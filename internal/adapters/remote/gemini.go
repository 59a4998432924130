// Package remote scores answer pairs with a hosted language model.
package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com"
	DefaultModel     = "models/gemini-2.5-flash"
	DefaultTimeout   = 20 * time.Second
	DefaultCacheSize = 256
)

var (
	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("remote: missing api key")
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("remote: unexpected status")
)

// Config holds the model endpoint settings.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// CacheSize bounds the number of remembered answer pairs. Zero disables caching.
	CacheSize int
}

// DefaultConfig returns a default configuration without an API key.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Model:     DefaultModel,
		Timeout:   DefaultTimeout,
		CacheSize: DefaultCacheSize,
	}
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithHTTPClient replaces the fasthttp client.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(s *Scorer) {
		s.client = c
	}
}

// WithClock replaces the time source used for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// Scorer asks a Gemini model to rate two answer sets.
type Scorer struct {
	config Config
	client *fasthttp.Client
	logger ports.Logger
	cache  *lru.Cache[string, domain.Result]
	now    func() time.Time
}

var _ ports.Scorer = (*Scorer)(nil)

// New creates a remote scorer.
func New(cfg Config, logger ports.Logger, opts ...Option) (*Scorer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &Scorer{
		config: cfg,
		client: &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		logger: logger,
		now:    time.Now,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, domain.Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("remote: create cache: %w", err)
		}
		s.cache = cache
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scorer) endpoint() string {
	base := strings.TrimRight(s.config.BaseURL, "/")
	return fmt.Sprintf("%s/v1/%s:generateContent?key=%s", base, s.config.Model, url.QueryEscape(s.config.APIKey))
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Score sends both answer sets to the model and turns its analysis into a result.
func (s *Scorer) Score(ctx context.Context, a, b domain.AnswerSet) (domain.Result, error) {
	key := cacheKey(a, b)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("Remote score served from cache", "key", key[:12])
			return cached, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: buildPrompt(a, b)}}}},
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("remote: marshal: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint())
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return domain.Result{}, fmt.Errorf("remote: post: %w: %v", context.DeadlineExceeded, err)
		}
		return domain.Result{}, fmt.Errorf("remote: post: %w", err)
	}
	s.logger.Debug("Remote model responded",
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"duration", time.Since(start),
	)

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return domain.Result{}, fmt.Errorf("%w: http %d: %s", ErrStatus, code, truncate(string(resp.Body()), 200))
	}

	parsed, err := parseAnalysis(resp.Body())
	if err != nil {
		return domain.Result{}, err
	}

	percentage := parsed.percentage()
	result := domain.Result{
		Percentage: percentage,
		Message:    parsed.message(percentage),
		ComputedAt: s.now(),
		Source:     domain.SourceRemote,
	}
	if s.cache != nil {
		s.cache.Add(key, result)
	}
	return result, nil
}

func cacheKey(a, b domain.AnswerSet) string {
	h := sha256.New()
	for _, q := range a.Questions() {
		h.Write([]byte(q))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, q := range b.Questions() {
		h.Write([]byte(q))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
