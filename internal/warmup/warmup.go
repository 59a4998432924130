// Package warmup exercises the scoring path before the server accepts traffic.
package warmup

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// Config defines configuration for warming up the system
type Config struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultConfig returns the default warmup configuration
func DefaultConfig() Config {
	return Config{
		Concurrency: runtime.NumCPU(),
		Iterations:  200,
		Duration:    2 * time.Second,
		ForceGC:     true,
	}
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	calculators []ports.CompatibilityCalculator
	tokenizers  []ports.Tokenizer
	config      Config
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config Config) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterCalculator adds a calculator to be warmed up
func (wm *Manager) RegisterCalculator(calc ports.CompatibilityCalculator) {
	wm.calculators = append(wm.calculators, calc)
}

// RegisterTokenizer adds a tokenizer to be warmed up
func (wm *Manager) RegisterTokenizer(t ports.Tokenizer) {
	wm.tokenizers = append(wm.tokenizers, t)
}

// WarmUp runs every registered component over the sample answers and returns
// the number of completed iterations.
func (wm *Manager) WarmUp(ctx context.Context) int64 {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.calculators)+len(wm.tokenizers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < wm.config.Iterations; j++ {
				if ctx.Err() != nil {
					return
				}
				a := samples[j%len(samples)]
				b := samples[(j+1)%len(samples)]
				for _, t := range wm.tokenizers {
					for _, q := range a.Questions() {
						_ = t.Tokenize(q)
					}
				}
				for _, calc := range wm.calculators {
					_ = calc.Compute(a, b)
				}
				done.Add(1)
			}
		}()
	}
	wg.Wait()

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	wm.logger.Info("System warmup completed",
		"duration", time.Since(startTime),
		"iterations", done.Load(),
	)
	return done.Load()
}

var samples = []domain.AnswerSet{
	{Q1: "Trust and honesty above everything", Q2: "Travel together and learn new things", Q3: "Talk it through calmly"},
	{Q1: "Honesty, loyalty and a lot of laughter", Q2: "Cooking at home with friends", Q3: "Take a walk, then talk"},
	{Q1: "Freedom to grow", Q2: "Quiet weekends in the mountains", Q3: "Give each other space first"},
	{},
}
