package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/limit"
	"github.com/goadmit/goadmit/pkg/limit/aimd"
	"github.com/goadmit/goadmit/pkg/limit/fixed"
	"github.com/goadmit/goadmit/pkg/limit/semaphore"
	"github.com/goadmit/goadmit/pkg/limit/throughput"
)

// LimitConfig declares one limiter. Durations accept ISO-8601 ("PT1S") or
// Go syntax ("200ms").
type LimitConfig struct {
	// Name identifies the limiter for registry lookup.
	Name string `yaml:"name"`

	// Type selects the implementation: fixed, throughput, or aimd.
	// Empty selects fixed.
	Type string `yaml:"type"`

	// Amount is the permit count for fixed limits and the per-window
	// admission count for throughput limits. Zero means unlimited.
	Amount int `yaml:"amount"`

	// Duration is the replenishment window for throughput limits.
	// Defaults to PT1S.
	Duration Duration `yaml:"duration"`

	// QueueLength bounds waiters once capacity is exhausted. Unset picks
	// the package default; an explicit 0 disables queueing.
	QueueLength *int `yaml:"queue-length"`

	// QueueTimeout bounds the wait before rejection. Defaults to PT1S.
	QueueTimeout Duration `yaml:"queue-timeout"`

	// Algorithm selects the throughput replenishment strategy:
	// token-bucket (default) or fixed-rate.
	Algorithm string `yaml:"rate-limiting-algorithm"`

	// AIMD tuning.
	MinLimit     int     `yaml:"min-limit"`
	MaxLimit     int     `yaml:"max-limit"`
	InitialLimit int     `yaml:"initial-limit"`
	BackoffRatio float64 `yaml:"backoff-ratio"`
}

// File is the top-level YAML document: a list of limiter declarations.
type File struct {
	Limits []LimitConfig `yaml:"limits"`
}

// Parse decodes a YAML document of limiter declarations.
func Parse(data []byte) ([]LimitConfig, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, gaerrors.NewValidationError("config", "yaml", "", err.Error())
	}
	return f.Limits, nil
}

// Load reads and decodes a YAML file of limiter declarations.
func Load(path string) ([]LimitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// BuildOptions carries the runtime collaborators configuration cannot
// express. The zero value is valid.
type BuildOptions struct {
	// Store is an externally supplied permit store for fixed limits,
	// bypassing configuration-driven sizing.
	Store *semaphore.Semaphore

	// Listeners observe admission decisions and outcomes.
	Listeners []limit.Listener

	// Classifier decides the outcome of completed tasks.
	Classifier limit.Classifier

	// Clock provides the current time.
	Clock limit.Clock

	// Logger receives listener failure reports.
	Logger *slog.Logger
}

// Build constructs the limit a declaration describes.
func (c LimitConfig) Build(opts BuildOptions) (limit.Limit, error) {
	// The packages use a negative queue length for "no queue"; in YAML an
	// explicit 0 means exactly that, absence means the default.
	queueLength := 0
	if c.QueueLength != nil {
		queueLength = *c.QueueLength
		if queueLength == 0 {
			queueLength = -1
		}
	}

	switch c.Type {
	case "", string(limit.TypeFixed):
		return fixed.New(fixed.Config{
			Name:         c.Name,
			Permits:      c.Amount,
			QueueLength:  queueLength,
			QueueTimeout: c.QueueTimeout.Std(),
			Store:        opts.Store,
			Listeners:    opts.Listeners,
			Classifier:   opts.Classifier,
			Clock:        opts.Clock,
			Logger:       opts.Logger,
		})

	case string(limit.TypeThroughput):
		period := c.Duration.Std()
		if period == 0 {
			period = time.Second
		}
		return throughput.New(throughput.Config{
			Name:         c.Name,
			Amount:       c.Amount,
			Period:       period,
			Algorithm:    throughput.Algorithm(c.Algorithm),
			QueueLength:  queueLength,
			QueueTimeout: c.QueueTimeout.Std(),
			Listeners:    opts.Listeners,
			Classifier:   opts.Classifier,
			Clock:        opts.Clock,
			Logger:       opts.Logger,
		})

	case string(limit.TypeAimd):
		return aimd.New(aimd.Config{
			Name:         c.Name,
			MinLimit:     c.MinLimit,
			MaxLimit:     c.MaxLimit,
			InitialLimit: c.InitialLimit,
			BackoffRatio: c.BackoffRatio,
			QueueLength:  queueLength,
			QueueTimeout: c.QueueTimeout.Std(),
			Listeners:    opts.Listeners,
			Classifier:   opts.Classifier,
			Clock:        opts.Clock,
			Logger:       opts.Logger,
		})

	default:
		return nil, gaerrors.NewValidationError("config", "type", c.Type, "unknown limit type").
			WithHint("use fixed, throughput, or aimd")
	}
}

// BuildAll constructs every declared limit and registers it by name.
func BuildAll(cfgs []LimitConfig, opts BuildOptions) (*Registry, error) {
	r := NewRegistry()
	for _, c := range cfgs {
		l, err := c.Build(opts)
		if err != nil {
			return nil, err
		}
		if err := r.Register(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}
