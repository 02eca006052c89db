package schedule

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/common/validation"
)

// Resizable is a capacity target a plan can steer. *semaphore.Semaphore
// satisfies it, so a plan can drive any limit built on an injected store.
type Resizable interface {
	SetCapacity(capacity int)
	Capacity() int
}

// Window pins a capacity to a recurring point in time. Spec is a standard
// five-field cron expression ("0 9 * * 1-5"), a descriptor ("@daily"), or
// an interval ("@every 30m").
type Window struct {
	Spec     string
	Capacity int
}

// Config holds configuration options for creating a capacity plan.
type Config struct {
	// Name identifies the plan in log output.
	Name string

	// Target is the permit store the plan resizes.
	Target Resizable

	// Windows are the scheduled capacity changes. At least one is required.
	Windows []Window

	// Location is the timezone for cron evaluation. If nil, time.Local.
	Location *time.Location

	// Logger receives capacity change reports. If nil, slog.Default().
	Logger *slog.Logger
}

// Plan applies scheduled capacity changes to a permit store: business-hours
// ceilings, overnight batch windows, weekend shrinks. Changes go through
// Resizable.SetCapacity, so running work is never interrupted; shrinks are
// absorbed as tasks complete.
type Plan struct {
	name   string
	target Resizable
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a capacity plan from the given configuration. The plan does
// nothing until Start is called.
func New(cfg Config) (*Plan, error) {
	if cfg.Target == nil {
		return nil, gaerrors.NewValidationError("schedule", "target", nil, "cannot be nil").
			WithHint("pass the permit store the plan should resize")
	}
	if len(cfg.Windows) == 0 {
		return nil, gaerrors.NewValidationError("schedule", "windows", nil, "cannot be empty").
			WithHint("define at least one capacity window")
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Plan{
		name:   cfg.Name,
		target: cfg.Target,
		cron:   cron.New(cron.WithLocation(location)),
		logger: logger,
	}

	for i, w := range cfg.Windows {
		if err := validation.ValidatePositive("schedule", fmt.Sprintf("windows[%d].capacity", i), w.Capacity); err != nil {
			return nil, err
		}
		capacity := w.Capacity
		if _, err := p.cron.AddFunc(w.Spec, func() {
			p.apply(capacity)
		}); err != nil {
			return nil, gaerrors.NewValidationError("schedule", fmt.Sprintf("windows[%d].spec", i), w.Spec, err.Error()).
				WithHint("use a five-field cron expression, @daily, or @every 30m")
		}
	}

	return p, nil
}

// Start begins evaluating the plan's windows. Safe to call once.
func (p *Plan) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.cron.Start()
}

// Stop halts the plan, waiting for an in-flight capacity change to finish.
// The store keeps its last applied capacity.
func (p *Plan) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	<-p.cron.Stop().Done()
}

// Next returns the time of the plan's next capacity change, or the zero
// time when the plan is not running.
func (p *Plan) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return time.Time{}
	}

	var next time.Time
	for _, e := range p.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (p *Plan) apply(capacity int) {
	old := p.target.Capacity()
	if capacity == old {
		return
	}
	p.target.SetCapacity(capacity)
	p.logger.Info("capacity plan applied",
		"plan", p.name,
		"from", old,
		"to", capacity,
	)
}
